package rules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveRateProfile(t *testing.T) {
	small := DeriveRateProfile(0.10, 25, 5, 0.0375)
	big := DeriveRateProfile(0.50, 25, 5, 0.0375)

	// A larger deposit earns a smaller variable margin.
	assert.Less(t, big.ReversionRate, small.ReversionRate)

	// The fix discounts the reversion rate but never goes below the base rate.
	assert.Less(t, small.FixedRate, small.ReversionRate)
	assert.GreaterOrEqual(t, small.FixedRate, 0.0375)

	// The longest fix carries no incentive.
	ten := DeriveRateProfile(0.20, 25, 10, 0.0375)
	assert.Equal(t, ten.ReversionRate, ten.FixedRate)

	// Margin floor: even a fully-funded deposit pays something over base.
	huge := DeriveRateProfile(1.0, 25, 0, 0.0375)
	assert.InDelta(t, 0.0375+0.005, huge.ReversionRate, 1e-9)
}

func TestAnnuityPayment(t *testing.T) {
	// 240k over 300 months at 4.2%: textbook annuity.
	p := AnnuityPayment(240000, 0.042, 300)
	r := 0.042 / 12
	want := 240000 * r / (1 - math.Pow(1+r, -300))
	assert.InDelta(t, want, p, 1e-6)

	// Zero rate degrades to straight division.
	assert.InDelta(t, 1000, AnnuityPayment(120000, 0, 120), 1e-9)
}

func TestNewMortgageShape(t *testing.T) {
	m := NewMortgage(300000, 0.20, 25, 5, false, 0.0375)

	assert.Equal(t, 60000, m.Deposit)
	assert.Equal(t, 240000, m.Principal)
	assert.Equal(t, 300, m.TermMonths)
	assert.Equal(t, 60, m.FixedPeriodMonths)
	assert.False(t, m.VariableRateActive)
	assert.Equal(t, float64(240000), m.RemainingBalance)
	assert.Greater(t, m.MonthlyPayment, 0.0)
}

func TestNewMortgageZeroFixStartsVariable(t *testing.T) {
	m := NewMortgage(300000, 0.20, 25, 0, false, 0.0375)

	assert.True(t, m.VariableRateActive)
	assert.Equal(t, m.ReversionRate, m.AnnualInterestRate)
}

func TestNewMortgageInterestOnly(t *testing.T) {
	m := NewMortgage(300000, 0.20, 25, 5, true, 0.0375)

	// Payment is pure interest on the full principal.
	assert.InDelta(t, 240000*m.AnnualInterestRate/12, m.MonthlyPayment, 1e-6)

	interest, principalPaid := AmortizeMonth(m)
	assert.InDelta(t, m.MonthlyPayment, interest, 1e-6)
	assert.Zero(t, principalPaid)
	assert.Equal(t, float64(240000), m.RemainingBalance, "interest-only balance must not amortize")
}

func TestAmortizationRunsToZero(t *testing.T) {
	m := NewMortgage(100000, 0.20, 10, 0, false, 0.03)

	for i := 0; i < m.TermMonths; i++ {
		AmortizeMonth(m)
	}

	assert.Equal(t, 0, m.RemainingTermMonths)
	assert.Equal(t, m.TermMonths, m.ElapsedMonths)
	// Level annuity payments clear the balance to rounding noise.
	assert.InDelta(t, 0, m.RemainingBalance, 0.5)
}

func TestRevertToVariableReamortizes(t *testing.T) {
	m := NewMortgage(300000, 0.20, 25, 2, false, 0.0375)
	fixedPayment := m.MonthlyPayment

	for i := 0; i < m.FixedPeriodMonths; i++ {
		AmortizeMonth(m)
	}
	require.Equal(t, m.FixedPeriodMonths, m.ElapsedMonths)

	RevertToVariable(m)

	assert.True(t, m.VariableRateActive)
	assert.Equal(t, m.ReversionRate, m.AnnualInterestRate)

	// The new payment amortizes the remaining balance over the remaining term.
	want := AnnuityPayment(m.RemainingBalance, m.ReversionRate, m.RemainingTermMonths)
	assert.InDelta(t, want, m.MonthlyPayment, 1e-6)
	assert.Greater(t, m.MonthlyPayment, fixedPayment, "reversion rate above the fix should raise the payment")
}

func TestRefixResetsSchedule(t *testing.T) {
	m := NewMortgage(300000, 0.20, 25, 2, false, 0.0375)
	for i := 0; i < m.FixedPeriodMonths; i++ {
		AmortizeMonth(m)
	}
	RevertToVariable(m)

	Refix(m, 5, 0.05)

	assert.False(t, m.VariableRateActive)
	assert.Equal(t, 60, m.FixedPeriodMonths)
	assert.Equal(t, 0, m.ElapsedMonths)
	want := AnnuityPayment(m.RemainingBalance, m.AnnualInterestRate, m.RemainingTermMonths)
	assert.InDelta(t, want, m.MonthlyPayment, 1e-6)
}

func TestNearestSnappingFinance(t *testing.T) {
	assert.Equal(t, 0.20, NearestDepositRatio(0.22))
	assert.Equal(t, 0.10, NearestDepositRatio(0.01))
	assert.Equal(t, 0.50, NearestDepositRatio(0.9))

	assert.Equal(t, 25, NearestTermYears(24))
	assert.Equal(t, 10, NearestTermYears(3))
	assert.Equal(t, 30, NearestTermYears(99))

	assert.Equal(t, 0, NearestFixedPeriodYears(0, 25))
	assert.Equal(t, 5, NearestFixedPeriodYears(6, 25))
	assert.Equal(t, 10, NearestFixedPeriodYears(30, 25))
	// The fix can never exceed the term.
	assert.Equal(t, 3, NearestFixedPeriodYears(10, 3))
}
