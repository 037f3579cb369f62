package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harwoodsim/property-tycoon/server/internal/domain/property"
)

func TestMonthlyRentDerivation(t *testing.T) {
	// 300000 * (0.0375 + 0.03) / 12 = 1687.5, rounds to 1688
	assert.Equal(t, 1688, MonthlyRent(300000, 0.0375, 0.03))

	// Yield floor keeps rent positive even at a zero bank rate and tiny offset.
	assert.Greater(t, MonthlyRent(300000, 0, 0.0001), 0)
}

func TestRentPlansGridShape(t *testing.T) {
	quotes := RentPlans(300000, 8, 0.0375)
	assert.Len(t, quotes, len(LeaseOptions)*len(RateOffsets))

	for _, q := range quotes {
		assert.GreaterOrEqual(t, q.Probability, 0.05, "plan %+v", q.Plan)
		assert.LessOrEqual(t, q.Probability, 0.95, "plan %+v", q.Plan)
		assert.Greater(t, q.MonthlyRent, 0, "plan %+v", q.Plan)
	}
}

func TestPlacementProbabilityMonotonicity(t *testing.T) {
	// Raising the offset at a fixed lease never increases the probability.
	for li := range LeaseOptions {
		prev := PlacementProbability(8, li, 0)
		for oi := 1; oi < len(RateOffsets); oi++ {
			p := PlacementProbability(8, li, oi)
			assert.LessOrEqual(t, p, prev, "lease %d offset %d", li, oi)
			prev = p
		}
	}

	// Higher demand never hurts.
	for d := 1; d <= 10; d++ {
		assert.GreaterOrEqual(t,
			PlacementProbability(d, 2, 4),
			PlacementProbability(d-1, 2, 4),
			"demand %d", d)
	}
}

func TestPlacementProbabilityLeaseRegimes(t *testing.T) {
	longLease := len(LeaseOptions) - 1

	// Cheap plans reward long leases.
	assert.Greater(t,
		PlacementProbability(8, longLease, 0),
		PlacementProbability(8, 0, 0))

	// Expensive plans reward short leases.
	assert.Greater(t,
		PlacementProbability(8, 0, len(RateOffsets)-1),
		PlacementProbability(8, longLease, len(RateOffsets)-1))

	// The neutral band is lease-length-indifferent.
	for _, mid := range []int{4, 5} {
		assert.Equal(t,
			PlacementProbability(8, 0, mid),
			PlacementProbability(8, longLease, mid))
	}
}

func TestQuoteForSnapsToGrid(t *testing.T) {
	q := QuoteFor(300000, 8, 0.0375, property.RentPlan{LeaseMonths: 14, RateOffset: 0.033})

	assert.Equal(t, 12, q.Plan.LeaseMonths)
	assert.Equal(t, 0.03, q.Plan.RateOffset)
	assert.Equal(t, MonthlyRent(300000, 0.0375, 0.03), q.MonthlyRent)
}

func TestEffectiveProbability(t *testing.T) {
	base := 0.5

	// Vacancy boost grows per month and caps at 0.15.
	assert.Equal(t, base+0.03, EffectiveProbability(base, 1, 5))
	assert.Equal(t, base+0.15, EffectiveProbability(base, 5, 5))
	assert.Equal(t, base+0.15, EffectiveProbability(base, 12, 5))

	// Demand nudges around the midpoint of 5.
	assert.Greater(t, EffectiveProbability(base, 0, 9), base)
	assert.Less(t, EffectiveProbability(base, 0, 1), base)

	// Clamped to [0.01, 0.98].
	assert.Equal(t, 0.98, EffectiveProbability(0.95, 12, 10))
	assert.Equal(t, 0.01, EffectiveProbability(0.02, 0, 0))
}

func TestNearestSnapping(t *testing.T) {
	assert.Equal(t, 12, NearestLease(13))
	assert.Equal(t, 36, NearestLease(100))
	assert.Equal(t, 6, NearestLease(1))

	assert.Equal(t, 0.03, NearestOffset(0.034))
	assert.Equal(t, 0.10, NearestOffset(0.5))
	assert.Equal(t, 0.01, NearestOffset(0.001))
}
