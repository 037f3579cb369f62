package engine

import (
	"fmt"

	"github.com/harwoodsim/property-tycoon/server/internal/domain/property"
	"github.com/harwoodsim/property-tycoon/server/internal/domain/rules"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
)

// TenancySystem runs the monthly tenancy pass: rent collection, lease
// countdown, relisting, and stochastic tenant placement.
type TenancySystem struct {
	cfg    Config
	rng    RandFunc
	logger *logger.Logger
}

// NewTenancySystem creates the tenancy processor.
func NewTenancySystem(cfg Config, rng RandFunc, log *logger.Logger) *TenancySystem {
	return &TenancySystem{cfg: cfg, rng: rng, logger: log}
}

// ProcessMonth advances every holding's tenancy by one month.
func (ts *TenancySystem) ProcessMonth(s *GameState) {
	for _, h := range s.Portfolio {
		if h.WorkOrder.Active() {
			// Crew on site: vacant and unrentable regardless of flags.
			h.VacantMonths++
			continue
		}

		if h.Tenant != nil {
			ts.collectRent(s, h)
			continue
		}

		if h.Rentable() {
			ts.rollForTenant(s, h)
		} else {
			h.VacantMonths++
		}
	}
}

// collectRent credits a sitting tenant's rent and counts the lease down.
func (ts *TenancySystem) collectRent(s *GameState, h *property.Holding) {
	s.Balance += float64(h.Tenant.MonthlyRent)
	s.Record(events.KindRent, h.ID, fmt.Sprintf("Collected %s rent from %s", money(h.Tenant.MonthlyRent), h.Name))

	h.Tenant.LeaseMonthsRemaining--
	if h.Tenant.LeaseMonthsRemaining > 0 {
		return
	}

	h.Tenant = nil
	h.VacantMonths = 0
	if h.AutoRelist {
		h.Listed = true
		s.Record(events.KindTenancy, h.ID, fmt.Sprintf("Lease ended at %s; relisted automatically", h.Name))
	} else {
		h.Listed = false
		s.Record(events.KindTenancy, h.ID, fmt.Sprintf("Lease ended at %s; property is off the rental market", h.Name))
	}
}

// rollForTenant makes the monthly placement roll for a marketed vacancy. The
// plan quote is always evaluated fresh against the current cost and central
// bank rate; only the vacancy boost and demand nudge are layered on top.
func (ts *TenancySystem) rollForTenant(s *GameState, h *property.Holding) {
	quote := rules.QuoteFor(h.Cost, h.DemandScore, s.CentralBankRate, h.Plan)
	eff := rules.EffectiveProbability(quote.Probability, h.VacantMonths, h.DemandScore)

	if ts.rng() < eff {
		h.Tenant = &property.Tenant{
			MonthlyRent:          quote.MonthlyRent,
			LeaseMonthsRemaining: quote.Plan.LeaseMonths,
		}
		h.VacantMonths = 0
		s.Record(events.KindTenancy, h.ID, fmt.Sprintf(
			"New tenant at %s: %d-month lease at %s/mo", h.Name, quote.Plan.LeaseMonths, money(quote.MonthlyRent)))
		ts.logger.Event("TENANT_PLACED", h.ID, h.Name)
		return
	}

	h.VacantMonths++
}
