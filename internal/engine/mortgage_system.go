package engine

import (
	"fmt"

	"github.com/harwoodsim/property-tycoon/server/internal/domain/property"
	"github.com/harwoodsim/property-tycoon/server/internal/domain/rules"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
)

// MortgageSystem runs the monthly mortgage pass: amortization, the
// fixed-to-variable transition, payoff, and interest-only balloon defaults.
type MortgageSystem struct {
	cfg    Config
	logger *logger.Logger
}

// NewMortgageSystem creates the mortgage processor.
func NewMortgageSystem(cfg Config, log *logger.Logger) *MortgageSystem {
	return &MortgageSystem{cfg: cfg, logger: log}
}

// ProcessMonth advances every financed holding by one month. Forced sales
// mutate the balance as they happen, so later defaults in the same batch see
// the proceeds already realized by earlier ones.
func (mo *MortgageSystem) ProcessMonth(s *GameState) {
	kept := make([]*property.Holding, 0, len(s.Portfolio))
	for _, h := range s.Portfolio {
		if h.Mortgage == nil {
			kept = append(kept, h)
			continue
		}
		if mo.processHolding(s, h) {
			kept = append(kept, h)
		}
	}
	s.Portfolio = kept
}

// processHolding returns false when the holding left the portfolio (forced
// sale).
func (mo *MortgageSystem) processHolding(s *GameState, h *property.Holding) bool {
	m := h.Mortgage

	if m.RemainingTermMonths > 0 {
		interest, _ := rules.AmortizeMonth(m)
		s.Balance -= m.MonthlyPayment
		s.Record(events.KindMortgage, h.ID, fmt.Sprintf(
			"Mortgage payment of %s on %s (%s interest)", moneyf(m.MonthlyPayment), h.Name, moneyf(interest)))

		// The rate reverts the month the elapsed count reaches the fixed
		// period. The payment is re-amortized against the remaining balance
		// and term, not the original schedule.
		if !m.VariableRateActive && m.ElapsedMonths >= m.FixedPeriodMonths {
			rules.RevertToVariable(m)
			s.Record(events.KindMortgage, h.ID, fmt.Sprintf(
				"Fixed period ended on %s; now on variable rate %s, payment %s",
				h.Name, percent(m.AnnualInterestRate), moneyf(m.MonthlyPayment)))
			mo.logger.Event("MORTGAGE_REVERTED", h.ID, h.Name)
		}
	}

	if m.RemainingTermMonths > 0 {
		return true
	}

	// Term is up.
	if m.RemainingBalance <= 0.5 {
		h.Mortgage = nil
		s.Record(events.KindMortgage, h.ID, fmt.Sprintf("Mortgage on %s paid off", h.Name))
		return true
	}

	if !m.InterestOnly {
		// Residual rounding balance on a repayment mortgage: settle it.
		s.Balance -= m.RemainingBalance
		h.Mortgage = nil
		s.Record(events.KindMortgage, h.ID, fmt.Sprintf("Final balance of %s settled on %s", moneyf(m.RemainingBalance), h.Name))
		return true
	}

	// Interest-only balloon: the full principal is due now.
	if s.Balance >= m.RemainingBalance {
		s.Balance -= m.RemainingBalance
		h.Mortgage = nil
		s.Record(events.KindMortgage, h.ID, fmt.Sprintf(
			"Balloon payment of %s made on %s; mortgage cleared", moneyf(m.RemainingBalance), h.Name))
		return true
	}

	// Cannot pay: forced sale at the current maintenance-adjusted value. Any
	// surplus is credited; a shortfall hits the balance even if it goes
	// negative.
	proceeds := float64(h.Cost)
	net := proceeds - m.RemainingBalance
	s.Balance += net
	s.Record(events.KindForcedSale, h.ID, fmt.Sprintf(
		"Could not meet %s balloon on %s; forced sale for %s settled the loan (net %s)",
		moneyf(m.RemainingBalance), h.Name, money(h.Cost), moneyf(net)))
	mo.logger.Warn("Forced sale of %s: balloon default", h.Name)
	return false
}
