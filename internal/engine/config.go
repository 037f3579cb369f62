package engine

import "github.com/harwoodsim/property-tycoon/server/internal/domain/rules"

// RandFunc is the single injectable randomness source for the engine.
// Market generation, tenant-placement rolls, and rate adjustments all draw
// from it, so a seeded source makes whole runs reproducible.
type RandFunc func() float64

// Config holds the tuning constants for a simulation run.
type Config struct {
	StartingBalance float64
	DaysPerMonth    int

	// Central bank
	StartingRate               float64
	MinimumRate                float64
	MaximumRate                float64
	MaxRateStep                float64
	RateAdjustmentIntervalDays int

	// Market rotation
	MarketMaxSize                int
	MarketMinSize                int
	MarketBatchSize              int
	MarketMaxAgeDays             int
	MarketGenerationIntervalDays int
	InheritedTenantChance        float64 // scaled by demand/10
	DefaultMaintenanceRange      [2]float64

	// Maintenance
	Decay                     rules.DecayRates
	MaintenanceCostRatio      float64
	MaintenanceDurationMonths int
	CriticalSalePercent       float64

	HistoryCap int
}

// DefaultConfig returns the standard game tuning.
func DefaultConfig() Config {
	return Config{
		StartingBalance: 250000,
		DaysPerMonth:    30,

		StartingRate:               0.0375,
		MinimumRate:                0.005,
		MaximumRate:                0.12,
		MaxRateStep:                0.005,
		RateAdjustmentIntervalDays: 30,

		MarketMaxSize:                12,
		MarketMinSize:                6,
		MarketBatchSize:              3,
		MarketMaxAgeDays:             45,
		MarketGenerationIntervalDays: 7,
		InheritedTenantChance:        0.5,
		DefaultMaintenanceRange:      [2]float64{62, 96},

		Decay: rules.DecayRates{
			OccupiedPerMonth: 0.8,
			VacantPerMonth:   1.5,
		},
		MaintenanceCostRatio:      0.9,
		MaintenanceDurationMonths: 2,
		CriticalSalePercent:       30,

		HistoryCap: 80,
	}
}
