package rules

import (
	"math"
	"sort"

	"github.com/harwoodsim/property-tycoon/server/internal/domain/mortgage"
)

// Offered mortgage shapes. Requests outside these sets snap to the nearest
// member rather than fail.
var (
	DepositRatios = []float64{0.10, 0.15, 0.20, 0.25, 0.30, 0.40, 0.50}
	TermYears     = []int{10, 15, 20, 25, 30}
)

// FixedRateIncentive discounts shorter fixes; the longest fix carries no
// incentive.
var FixedRateIncentive = map[int]float64{
	2:  -0.004,
	3:  -0.003,
	5:  -0.002,
	10: 0,
}

// Lending constants.
const (
	variableMarginBase = 0.025
	depositFactor      = 0.02
	minimumMargin      = 0.005
	minimumRate        = 0.01
	maximumRate        = 0.15
)

// RateProfile is the fixed/variable rate pair derived for a mortgage.
type RateProfile struct {
	FixedRate     float64 `json:"fixed_rate"`
	ReversionRate float64 `json:"reversion_rate"`
}

// DeriveRateProfile prices a mortgage from the deposit ratio, fixed period,
// and the current central bank rate. A larger deposit earns a smaller
// variable margin; the fixed rate discounts the reversion rate by the fixed
// period's incentive but is never allowed below the base rate.
func DeriveRateProfile(depositRatio float64, termYears, fixedPeriodYears int, baseRate float64) RateProfile {
	margin := math.Max(minimumMargin, variableMarginBase-depositRatio*depositFactor)
	reversion := clamp(baseRate+margin, minimumRate, maximumRate)

	incentive, ok := FixedRateIncentive[fixedPeriodYears]
	if !ok {
		incentive = 0
	}
	fixed := clamp(reversion+incentive, minimumRate, maximumRate)
	if fixed < baseRate {
		fixed = baseRate
	}

	return RateProfile{FixedRate: fixed, ReversionRate: reversion}
}

// AnnuityPayment is the standard level monthly payment that amortizes a
// principal over the given number of months.
func AnnuityPayment(principal, annualRate float64, months int) float64 {
	if months <= 0 {
		return principal
	}
	r := annualRate / 12
	if r == 0 {
		return principal / float64(months)
	}
	return principal * r / (1 - math.Pow(1+r, -float64(months)))
}

// NewMortgage builds a mortgage record for a purchase. Interest-only
// mortgages pay interest on the full principal each month, with the
// principal due as a balloon at term end. A zero-year fix starts on the
// reversion rate immediately.
func NewMortgage(cost int, depositRatio float64, termYears, fixedPeriodYears int, interestOnly bool, baseRate float64) *mortgage.Mortgage {
	deposit := int(math.Round(float64(cost) * depositRatio))
	principal := cost - deposit
	profile := DeriveRateProfile(depositRatio, termYears, fixedPeriodYears, baseRate)

	termMonths := termYears * 12
	m := &mortgage.Mortgage{
		DepositRatio:        depositRatio,
		Deposit:             deposit,
		Principal:           principal,
		TermMonths:          termMonths,
		FixedPeriodMonths:   fixedPeriodYears * 12,
		InterestOnly:        interestOnly,
		AnnualInterestRate:  profile.FixedRate,
		ReversionRate:       profile.ReversionRate,
		RemainingBalance:    float64(principal),
		RemainingTermMonths: termMonths,
	}

	if fixedPeriodYears == 0 {
		m.VariableRateActive = true
		m.AnnualInterestRate = profile.ReversionRate
	}

	m.MonthlyPayment = paymentFor(m)
	return m
}

// AmortizeMonth advances the mortgage by one month at the current effective
// rate, returning the interest charged and principal repaid. The principal
// portion is capped so the balance never goes negative. The caller is
// responsible for debiting MonthlyPayment from the player balance.
func AmortizeMonth(m *mortgage.Mortgage) (interest, principalPaid float64) {
	interest = m.RemainingBalance * m.MonthlyRate()
	if !m.InterestOnly {
		principalPaid = m.MonthlyPayment - interest
		if principalPaid > m.RemainingBalance {
			principalPaid = m.RemainingBalance
		}
		if principalPaid < 0 {
			principalPaid = 0
		}
		m.RemainingBalance -= principalPaid
	}
	m.RemainingTermMonths--
	m.ElapsedMonths++
	return interest, principalPaid
}

// RevertToVariable switches the mortgage onto its reversion rate and
// re-amortizes the payment against the current remaining balance and
// remaining term. This is a re-amortization, not a rate swap on the
// original schedule.
func RevertToVariable(m *mortgage.Mortgage) {
	m.VariableRateActive = true
	m.AnnualInterestRate = m.ReversionRate
	m.MonthlyPayment = paymentFor(m)
}

// Refix re-prices a variable mortgage onto a new fixed period against the
// current outstanding balance and central bank rate. The caller enforces
// eligibility (variable rate active, non-trivial balance).
func Refix(m *mortgage.Mortgage, fixedPeriodYears int, baseRate float64) {
	remainingYears := m.RemainingTermMonths / 12
	if remainingYears < 1 {
		remainingYears = 1
	}
	profile := DeriveRateProfile(m.DepositRatio, remainingYears, fixedPeriodYears, baseRate)

	m.FixedPeriodMonths = fixedPeriodYears * 12
	m.ElapsedMonths = 0
	m.VariableRateActive = false
	m.AnnualInterestRate = profile.FixedRate
	m.ReversionRate = profile.ReversionRate
	m.MonthlyPayment = paymentFor(m)
}

// paymentFor computes the level payment for the mortgage's current balance,
// rate, and remaining term.
func paymentFor(m *mortgage.Mortgage) float64 {
	if m.InterestOnly {
		return m.RemainingBalance * m.MonthlyRate()
	}
	return AnnuityPayment(m.RemainingBalance, m.AnnualInterestRate, m.RemainingTermMonths)
}

// NearestDepositRatio snaps a requested ratio to the closest offered one.
func NearestDepositRatio(ratio float64) float64 {
	best := DepositRatios[0]
	for _, opt := range DepositRatios {
		if math.Abs(ratio-opt) < math.Abs(ratio-best) {
			best = opt
		}
	}
	return best
}

// NearestTermYears snaps a requested term to the closest offered one.
func NearestTermYears(years int) int {
	best := TermYears[0]
	for _, opt := range TermYears {
		if abs(years-opt) < abs(years-best) {
			best = opt
		}
	}
	return best
}

// NearestFixedPeriodYears snaps a requested fix to the closest offered one
// that fits within the mortgage term. Zero (no fix) is always allowed.
func NearestFixedPeriodYears(years, termYears int) int {
	if years <= 0 {
		return 0
	}
	options := make([]int, 0, len(FixedRateIncentive))
	for opt := range FixedRateIncentive {
		if opt <= termYears {
			options = append(options, opt)
		}
	}
	if len(options) == 0 {
		return 0
	}
	sort.Ints(options)
	best := options[0]
	for _, opt := range options {
		if abs(years-opt) < abs(years-best) {
			best = opt
		}
	}
	return best
}
