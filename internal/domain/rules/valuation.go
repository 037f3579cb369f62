// Package rules contains the pure calculation logic for the simulation.
// This package is PURE and must NOT import any infrastructure packages.
//
// Every rate, rent, and valuation figure in the engine comes from here.
// Other components call these functions instead of re-deriving pieces of the
// formulas, so a preview and the applied value can never drift apart.
package rules

import (
	"math"

	"github.com/harwoodsim/property-tycoon/server/internal/domain/property"
)

// Valuation weights. BaseValue is computed once at creation and treated as
// immutable afterwards; only the maintenance-adjusted Cost moves.
const (
	valueBase       = 45000
	valuePerBedroom = 28000
	valuePerBath    = 16000
	proximityWeight = 3500
	schoolWeight    = 3000
	safetyWeight    = 2500

	// Add-on for features missing from the bonus table.
	defaultFeatureBonus = 35
)

var featureBonus = map[property.Feature]int{
	property.FeatureGarage:      14000,
	property.FeatureGarden:      9500,
	property.FeatureBalcony:     6000,
	property.FeatureSolarPanels: 8000,
	property.FeaturePool:        18000,
	property.FeatureFireplace:   4500,
	property.FeatureHomeOffice:  7000,
}

var typeMultiplier = map[property.Type]float64{
	property.TypeApartment:    0.85,
	property.TypeTownhouse:    1.0,
	property.TypeSingleFamily: 1.15,
	property.TypeLuxury:       1.6,
}

// BaseValue computes the full-condition market value of a property from its
// attributes.
func BaseValue(p *property.Property) int {
	sum := float64(valueBase)
	sum += float64(p.Bedrooms * valuePerBedroom)
	sum += float64(p.Bathrooms * valuePerBath)
	sum += float64(p.Location.Proximity * proximityWeight)
	sum += float64(p.Location.SchoolScore * schoolWeight)
	sum += float64((10 - p.Location.CrimeScore) * safetyWeight)

	for _, f := range p.Features {
		if bonus, ok := featureBonus[f]; ok {
			sum += float64(bonus)
		} else {
			sum += defaultFeatureBonus
		}
	}

	mult, ok := typeMultiplier[p.Type]
	if !ok {
		mult = 1.0
	}

	return int(math.Round(sum * mult))
}

// AdjustedValue maps a base value and maintenance percentage to the current
// market value. Never negative.
func AdjustedValue(baseValue int, maintenancePercent float64) int {
	pct := clamp(maintenancePercent, 0, 100)
	v := int(math.Round(float64(baseValue) * pct / 100))
	if v < 0 {
		v = 0
	}
	return v
}

// ApplyMaintenance sets the maintenance percentage (clamped to [0,100]) and
// recomputes Cost in the same step. This is the only place the two fields are
// written, which keeps them from diverging. Full precision is kept here so
// daily-fractional decay accumulates; display layers round to one decimal.
func ApplyMaintenance(p *property.Property, percent float64) {
	pct := clamp(percent, 0, 100)
	p.MaintenancePercent = pct
	p.Cost = AdjustedValue(p.BaseValue, pct)
}

// DecayRates holds the per-month maintenance decay for the two occupancy
// states. Occupied properties decay slower.
type DecayRates struct {
	OccupiedPerMonth float64
	VacantPerMonth   float64
}

// DailyDecay returns the per-day maintenance loss so that sub-month ticks
// still erode condition proportionally.
func (d DecayRates) DailyDecay(occupied bool) float64 {
	if occupied {
		return d.OccupiedPerMonth / 30
	}
	return d.VacantPerMonth / 30
}

// MaintenanceQuote prices a restoration job. The deficiency is projected
// against the percentage forecast at the time work will actually start, i.e.
// decay is projected forward through any tenant-lease delay, not taken from
// the percentage at scheduling time.
func MaintenanceQuote(baseValue int, currentPercent float64, delayMonths int, rates DecayRates, costRatio float64) int {
	forecast := clamp(currentPercent-rates.OccupiedPerMonth*float64(delayMonths), 0, 100)
	deficiency := (100 - forecast) / 100
	return int(math.Round(deficiency * float64(baseValue) * costRatio))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
