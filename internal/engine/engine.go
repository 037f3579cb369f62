// Package engine contains the simulation loop and game logic for the
// property tycoon server.
//
// ARCHITECTURAL RULE: the engine is single-writer and synchronous. Every
// operation clones the committed state, works on the clone, and commits it
// whole — a rejected or panicking operation leaves the previous state
// untouched, and history entries only reach the observable log on commit.
package engine

import (
	"fmt"
	"sync"

	"github.com/harwoodsim/property-tycoon/server/internal/domain/mortgage"
	"github.com/harwoodsim/property-tycoon/server/internal/domain/property"
	"github.com/harwoodsim/property-tycoon/server/internal/domain/rules"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
)

// Engine is the central orchestrator that advances the simulation clock and
// applies player actions to the game state.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	rng    RandFunc
	log    *events.Log
	logger *logger.Logger

	// Sub-systems
	market      *MarketSystem
	tenancy     *TenancySystem
	mortgages   *MortgageSystem
	maintenance *MaintenanceSystem
	bank        *RateBankSystem

	state *GameState
}

// NewEngine initializes the simulation systems and seeds the opening market.
func NewEngine(cfg Config, rng RandFunc, log *events.Log, appLogger *logger.Logger) *Engine {
	e := &Engine{
		cfg:    cfg,
		rng:    rng,
		log:    log,
		logger: appLogger,

		market:      NewMarketSystem(cfg, rng, appLogger),
		tenancy:     NewTenancySystem(cfg, rng, appLogger),
		mortgages:   NewMortgageSystem(cfg, appLogger),
		maintenance: NewMaintenanceSystem(cfg, appLogger),
		bank:        NewRateBankSystem(cfg, rng, appLogger),
	}

	e.state = NewGameState(cfg)
	e.market.SeedInitial(e.state)
	return e
}

// Snapshot returns a deep copy of the committed state for readers.
func (e *Engine) Snapshot() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Restore replaces the committed state, e.g. from a persisted snapshot.
func (e *Engine) Restore(s *GameState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s.historyCap = e.cfg.HistoryCap
	e.state = s
}

// Reset discards the run and starts a fresh one with a newly seeded market.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := NewGameState(e.cfg)
	e.market.SeedInitial(next)
	next.Record(events.KindSystem, "", "Simulation reset")
	e.commit(next)
	e.logger.Info("Simulation reset to day 0")
}

// AdvanceDay moves the simulated clock forward one day: market rotation and
// condition decay run daily, whole elapsed months are batch-processed in
// order, then the central bank gets its turn. Runs to completion before
// returning; on a panic the previous committed state stays intact.
func (e *Engine) AdvanceDay() {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	if !e.runTick(next) {
		return
	}
	e.commit(next)
}

// runTick executes one day against the working state. Returns false when the
// tick panicked and must be discarded.
func (e *Engine) runTick(s *GameState) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Tick aborted on day %d, state rolled back: %v", s.Day, r)
			ok = false
		}
	}()

	s.Day++
	e.market.RotateDaily(s)
	e.maintenance.DecayDaily(s)

	// Catch up every whole elapsed month in one call without drift.
	if months := (s.Day - s.LastRentCollectionDay) / e.cfg.DaysPerMonth; months > 0 {
		for i := 0; i < months; i++ {
			e.tenancy.ProcessMonth(s)
			e.mortgages.ProcessMonth(s)
			e.maintenance.ProcessMonth(s)
		}
		s.LastRentCollectionDay += months * e.cfg.DaysPerMonth
	}

	e.bank.MaybeAdjust(s)
	return true
}

// commit publishes the working state and flushes its history entries to the
// observable log.
func (e *Engine) commit(next *GameState) {
	e.state = next
	for _, entry := range next.drainPending() {
		e.log.Append(entry)
	}
}

// reject records why an action was refused without touching anything else.
func (e *Engine) reject(err error, propertyID string) {
	e.state.Record(events.KindRejected, propertyID, "Action rejected: "+err.Error())
	for _, entry := range e.state.drainPending() {
		e.log.Append(entry)
	}
}

// PurchaseWithCash buys a market listing outright.
func (e *Engine) PurchaseWithCash(propertyID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	if err := e.purchase(next, propertyID, nil); err != nil {
		e.reject(err, propertyID)
		return err
	}
	e.commit(next)
	return nil
}

// FinancePurchase buys a market listing with a mortgage. Deposit ratio,
// term, and fixed period snap to the nearest offered values.
func (e *Engine) FinancePurchase(propertyID string, depositRatio float64, termYears, fixedPeriodYears int, interestOnly bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if depositRatio <= 0 || depositRatio >= 1 {
		err := fmt.Errorf("%w: deposit ratio %.2f", ErrInvalidSelection, depositRatio)
		e.reject(err, propertyID)
		return err
	}

	ratio := rules.NearestDepositRatio(depositRatio)
	term := rules.NearestTermYears(termYears)
	fix := rules.NearestFixedPeriodYears(fixedPeriodYears, term)

	next := e.state.Clone()
	_, p := next.listing(propertyID)
	if p == nil {
		err := fmt.Errorf("%w: unknown listing %s", ErrInvalidSelection, propertyID)
		e.reject(err, propertyID)
		return err
	}

	m := rules.NewMortgage(p.Cost, ratio, term, fix, interestOnly, next.CentralBankRate)
	if err := e.purchase(next, propertyID, m); err != nil {
		e.reject(err, propertyID)
		return err
	}
	e.commit(next)
	return nil
}

// purchase moves a listing into the portfolio, paying cash or the mortgage
// deposit.
func (e *Engine) purchase(s *GameState, propertyID string, m *mortgage.Mortgage) error {
	i, p := s.listing(propertyID)
	if p == nil {
		return fmt.Errorf("%w: unknown listing %s", ErrInvalidSelection, propertyID)
	}

	outlay := float64(p.Cost)
	if m != nil {
		outlay = float64(m.Deposit)
	}
	if outlay > s.Balance {
		return fmt.Errorf("%w: %s needed, %s available", ErrInsufficientFunds, moneyf(outlay), moneyf(s.Balance))
	}

	s.Balance -= outlay
	s.removeListing(i)

	h := &property.Holding{
		Property: *p.Clone(),
		Mortgage: m,
		Tenant:   p.InheritedTenant,
		Plan:     rules.DefaultPlan,
		Listed:   true,
	}
	h.InheritedTenant = nil
	h.MarketAge = 0
	s.Portfolio = append(s.Portfolio, h)

	if m != nil {
		s.Record(events.KindPurchase, h.ID, fmt.Sprintf(
			"Bought %s for %s with a %s deposit (%d-year mortgage, %s fixed %dy)",
			h.Name, money(h.Cost), money(m.Deposit), m.TermMonths/12, percent(m.AnnualInterestRate), m.FixedPeriodMonths/12))
	} else {
		s.Record(events.KindPurchase, h.ID, fmt.Sprintf("Bought %s for %s in cash", h.Name, money(h.Cost)))
	}
	if h.Tenant != nil {
		s.Record(events.KindTenancy, h.ID, fmt.Sprintf(
			"%s came with a sitting tenant paying %s/mo (%d months left)",
			h.Name, money(h.Tenant.MonthlyRent), h.Tenant.LeaseMonthsRemaining))
	}
	e.logger.Event("PURCHASE", h.ID, h.Name)
	return nil
}

// SellProperty sells a portfolio property at its current maintenance-adjusted
// value, settling any outstanding mortgage from the proceeds.
func (e *Engine) SellProperty(propertyID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	i, h := next.holding(propertyID)
	if h == nil {
		err := fmt.Errorf("%w: unknown property %s", ErrInvalidSelection, propertyID)
		e.reject(err, propertyID)
		return err
	}
	if h.WorkOrder.Active() {
		err := fmt.Errorf("%w: %s has restoration work in progress", ErrIneligibleOperation, h.Name)
		e.reject(err, propertyID)
		return err
	}
	if h.MaintenancePercent < e.cfg.CriticalSalePercent {
		err := fmt.Errorf("%w: %s is below the %.0f%% condition needed to sell",
			ErrIneligibleOperation, h.Name, e.cfg.CriticalSalePercent)
		e.reject(err, propertyID)
		return err
	}

	proceeds := float64(h.Cost)
	if h.Mortgage != nil {
		proceeds -= h.Mortgage.RemainingBalance
	}
	next.Balance += proceeds
	next.removeHolding(i)

	if h.Mortgage != nil {
		next.Record(events.KindSale, h.ID, fmt.Sprintf(
			"Sold %s for %s; %s repaid the mortgage, netting %s",
			h.Name, money(h.Cost), moneyf(h.Mortgage.RemainingBalance), moneyf(proceeds)))
	} else {
		next.Record(events.KindSale, h.ID, fmt.Sprintf("Sold %s for %s", h.Name, money(h.Cost)))
	}
	e.commit(next)
	e.logger.Event("SALE", h.ID, h.Name)
	return nil
}

// ScheduleMaintenance books restoration work on a property. The quote is
// priced against the condition forecast for when work can actually start —
// after any sitting tenant's lease — and is debited up front.
func (e *Engine) ScheduleMaintenance(propertyID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	_, h := next.holding(propertyID)
	if h == nil {
		err := fmt.Errorf("%w: unknown property %s", ErrInvalidSelection, propertyID)
		e.reject(err, propertyID)
		return err
	}
	if h.WorkOrder != nil {
		err := fmt.Errorf("%w: maintenance already scheduled for %s", ErrIneligibleOperation, h.Name)
		e.reject(err, propertyID)
		return err
	}
	if h.MaintenancePercent >= 100 {
		err := fmt.Errorf("%w: %s is already in perfect condition", ErrIneligibleOperation, h.Name)
		e.reject(err, propertyID)
		return err
	}

	delay := 0
	if h.Tenant != nil {
		delay = h.Tenant.LeaseMonthsRemaining
	}
	quote := rules.MaintenanceQuote(h.BaseValue, h.MaintenancePercent, delay, e.cfg.Decay, e.cfg.MaintenanceCostRatio)
	if float64(quote) > next.Balance {
		err := fmt.Errorf("%w: restoration quote %s exceeds balance %s", ErrInsufficientFunds, money(quote), moneyf(next.Balance))
		e.reject(err, propertyID)
		return err
	}

	next.Balance -= float64(quote)
	h.WorkOrder = &property.WorkOrder{
		MonthsRemaining:  e.cfg.MaintenanceDurationMonths,
		StartDelayMonths: delay,
		Cost:             quote,
	}
	h.MarketingPaused = true

	if delay > 0 {
		next.Record(events.KindMaintenance, h.ID, fmt.Sprintf(
			"Booked restoration at %s for %s; work starts in %d month(s) when the lease ends", h.Name, money(quote), delay))
	} else {
		next.Record(events.KindMaintenance, h.ID, fmt.Sprintf("Booked restoration at %s for %s", h.Name, money(quote)))
	}
	e.commit(next)
	return nil
}

// SetAutoRelist toggles automatic remarketing when a lease ends.
func (e *Engine) SetAutoRelist(propertyID string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	_, h := next.holding(propertyID)
	if h == nil {
		err := fmt.Errorf("%w: unknown property %s", ErrInvalidSelection, propertyID)
		e.reject(err, propertyID)
		return err
	}

	h.AutoRelist = enabled
	state := "off"
	if enabled {
		state = "on"
	}
	next.Record(events.KindTenancy, h.ID, fmt.Sprintf("Auto-relist turned %s for %s", state, h.Name))
	e.commit(next)
	return nil
}

// SetRentPlan selects the marketed rent plan for a property and puts it back
// on the rental market. Out-of-grid values snap to the nearest plan.
func (e *Engine) SetRentPlan(propertyID string, leaseMonths int, rateOffset float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if leaseMonths <= 0 || rateOffset <= 0 {
		err := fmt.Errorf("%w: lease %d months at offset %.2f", ErrInvalidSelection, leaseMonths, rateOffset)
		e.reject(err, propertyID)
		return err
	}

	next := e.state.Clone()
	_, h := next.holding(propertyID)
	if h == nil {
		err := fmt.Errorf("%w: unknown property %s", ErrInvalidSelection, propertyID)
		e.reject(err, propertyID)
		return err
	}

	h.Plan = property.RentPlan{
		LeaseMonths: rules.NearestLease(leaseMonths),
		RateOffset:  rules.NearestOffset(rateOffset),
	}
	h.Listed = true
	quote := rules.QuoteFor(h.Cost, h.DemandScore, next.CentralBankRate, h.Plan)
	next.Record(events.KindTenancy, h.ID, fmt.Sprintf(
		"%s now marketed on a %d-month lease at %s/mo", h.Name, h.Plan.LeaseMonths, money(quote.MonthlyRent)))
	e.commit(next)
	return nil
}

// RefinanceMortgage re-fixes a reverted mortgage against the current
// outstanding balance and central bank rate. Only permitted once the
// original fix has run out.
func (e *Engine) RefinanceMortgage(propertyID string, fixedPeriodYears int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	_, h := next.holding(propertyID)
	if h == nil {
		err := fmt.Errorf("%w: unknown property %s", ErrInvalidSelection, propertyID)
		e.reject(err, propertyID)
		return err
	}
	m := h.Mortgage
	if m == nil {
		err := fmt.Errorf("%w: %s has no mortgage", ErrIneligibleOperation, h.Name)
		e.reject(err, propertyID)
		return err
	}
	if !m.VariableRateActive {
		err := fmt.Errorf("%w: %s is still in its fixed period", ErrIneligibleOperation, h.Name)
		e.reject(err, propertyID)
		return err
	}
	if m.RemainingBalance <= 0.5 {
		err := fmt.Errorf("%w: mortgage on %s is effectively paid off", ErrIneligibleOperation, h.Name)
		e.reject(err, propertyID)
		return err
	}

	remainingYears := m.RemainingTermMonths / 12
	if remainingYears < 1 {
		remainingYears = 1
	}
	fix := rules.NearestFixedPeriodYears(fixedPeriodYears, remainingYears)
	if fix == 0 {
		err := fmt.Errorf("%w: no fixed period fits the %d months remaining", ErrInvalidSelection, m.RemainingTermMonths)
		e.reject(err, propertyID)
		return err
	}

	rules.Refix(m, fix, next.CentralBankRate)
	next.Record(events.KindMortgage, h.ID, fmt.Sprintf(
		"Refinanced %s onto a %d-year fix at %s; payment %s",
		h.Name, fix, percent(m.AnnualInterestRate), moneyf(m.MonthlyPayment)))
	e.commit(next)
	e.logger.Event("REFINANCE", h.ID, h.Name)
	return nil
}
