package rules

import (
	"math"

	"github.com/harwoodsim/property-tycoon/server/internal/domain/property"
)

// LeaseOptions are the offered lease lengths, shortest first.
var LeaseOptions = []int{6, 12, 18, 24, 36}

// RateOffsets are the offered premiums over the central bank rate, cheapest
// first.
var RateOffsets = []float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08, 0.09, 0.10}

// DefaultPlan is the plan a new listing is marketed on until the owner picks
// another.
var DefaultPlan = property.RentPlan{LeaseMonths: 12, RateOffset: 0.03}

// Probability shaping constants.
const (
	probDemandBase     = 0.2
	probDemandSpan     = 0.6
	probDemandCap      = 0.95
	probOffsetFloor    = 0.35 // multiplier at the most expensive offset
	probLeaseStep      = 0.02 // per lease position away from the middle option
	probMin            = 0.05
	probMax            = 0.95
	effVacancyPerMonth = 0.03
	effVacancyCap      = 0.15
	effDemandStep      = 0.01
	effMin             = 0.01
	effMax             = 0.98
)

// PlanQuote is a rent plan with its derived monthly rent and tenant-placement
// probability at a given cost and central bank rate.
type PlanQuote struct {
	Plan        property.RentPlan `json:"plan"`
	MonthlyRent int               `json:"monthly_rent"`
	Probability float64           `json:"probability"`
}

// MonthlyRent derives the asking rent for a plan from the current cost and
// central bank rate. The effective yield is floored so rent stays positive
// even if the bank rate were driven to zero.
func MonthlyRent(cost int, bankRate, rateOffset float64) int {
	yield := math.Max(bankRate+rateOffset, 0.001)
	return int(math.Round(float64(cost) * yield / 12))
}

// PlacementProbability computes the chance of placing a tenant on a plan
// within one month of marketing.
//
// Three terms combine: a demand-derived base, a penalty that scales the
// probability down linearly as the rate offset rises (to a floor of 0.35 at
// the most expensive offset), and a lease-length adjustment whose sign
// depends on which side of the neutral band around the median offset the
// plan sits on. Cheap plans reward long leases, expensive plans reward short
// ones, and the neutral band is lease-length-indifferent.
func PlacementProbability(demandScore, leaseIdx, offsetIdx int) float64 {
	base := probDemandBase + float64(demandScore)/10*probDemandSpan
	if base > probDemandCap {
		base = probDemandCap
	}

	lastOffset := len(RateOffsets) - 1
	mult := 1 - (1-probOffsetFloor)*float64(offsetIdx)/float64(lastOffset)

	// Neutral band: the two offsets straddling the median.
	midLease := len(LeaseOptions) / 2
	leasePos := float64(leaseIdx - midLease)
	var adj float64
	switch {
	case offsetIdx < lastOffset/2:
		adj = leasePos * probLeaseStep
	case offsetIdx > lastOffset/2+1:
		adj = -leasePos * probLeaseStep
	}

	p := base*mult + adj
	p = clamp(p, probMin, probMax)
	return math.Round(p*1000) / 1000
}

// RentPlans returns the full lease-length x rate-offset grid of plan quotes
// for a property at the current central bank rate. Quotes are evaluated fresh
// each call and must never be cached on the property.
func RentPlans(cost, demandScore int, bankRate float64) []PlanQuote {
	quotes := make([]PlanQuote, 0, len(LeaseOptions)*len(RateOffsets))
	for li, lease := range LeaseOptions {
		for oi, offset := range RateOffsets {
			quotes = append(quotes, PlanQuote{
				Plan:        property.RentPlan{LeaseMonths: lease, RateOffset: offset},
				MonthlyRent: MonthlyRent(cost, bankRate, offset),
				Probability: PlacementProbability(demandScore, li, oi),
			})
		}
	}
	return quotes
}

// QuoteFor evaluates a single plan against the current cost and bank rate.
// Out-of-grid plans are snapped to the nearest valid combination first.
func QuoteFor(cost, demandScore int, bankRate float64, plan property.RentPlan) PlanQuote {
	lease := NearestLease(plan.LeaseMonths)
	offset := NearestOffset(plan.RateOffset)
	return PlanQuote{
		Plan:        property.RentPlan{LeaseMonths: lease, RateOffset: offset},
		MonthlyRent: MonthlyRent(cost, bankRate, offset),
		Probability: PlacementProbability(demandScore, leaseIndex(lease), offsetIndex(offset)),
	}
}

// EffectiveProbability applies the vacancy boost and demand nudge to a plan's
// base probability. Each consecutive vacant month adds a bounded bonus; the
// two adjustments are additive and the result is clamped once at the end.
func EffectiveProbability(planProbability float64, vacantMonths, demandScore int) float64 {
	boost := math.Min(float64(vacantMonths)*effVacancyPerMonth, effVacancyCap)
	nudge := float64(demandScore-5) * effDemandStep
	return clamp(planProbability+boost+nudge, effMin, effMax)
}

// NearestLease snaps an arbitrary month count to the closest offered lease
// length.
func NearestLease(months int) int {
	best := LeaseOptions[0]
	for _, opt := range LeaseOptions {
		if abs(months-opt) < abs(months-best) {
			best = opt
		}
	}
	return best
}

// NearestOffset snaps an arbitrary premium to the closest offered rate
// offset.
func NearestOffset(offset float64) float64 {
	best := RateOffsets[0]
	for _, opt := range RateOffsets {
		if math.Abs(offset-opt) < math.Abs(offset-best) {
			best = opt
		}
	}
	return best
}

func leaseIndex(months int) int {
	for i, opt := range LeaseOptions {
		if opt == months {
			return i
		}
	}
	return 0
}

func offsetIndex(offset float64) int {
	for i, opt := range RateOffsets {
		if math.Abs(opt-offset) < 1e-9 {
			return i
		}
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
