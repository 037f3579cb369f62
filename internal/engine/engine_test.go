package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harwoodsim/property-tycoon/server/internal/domain/property"
	"github.com/harwoodsim/property-tycoon/server/internal/domain/rules"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
)

// constRand returns the same value on every draw. 0.99 keeps the world quiet:
// no inherited tenants, no placements, rates drift up but stay in bounds.
func constRand(v float64) RandFunc {
	return func() float64 { return v }
}

func newTestEngine(rng RandFunc) (*Engine, *events.Log) {
	log := events.NewLog(nil)
	return NewEngine(DefaultConfig(), rng, log, logger.NewLogger()), log
}

func TestNewEngineSeedsMarket(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.99))
	s := eng.Snapshot()

	cfg := DefaultConfig()
	assert.Len(t, s.Market, cfg.MarketMinSize)
	assert.Equal(t, cfg.StartingBalance, s.Balance)
	assert.Equal(t, cfg.StartingRate, s.CentralBankRate)
	assert.Empty(t, s.History, "seeding must not generate history entries")

	for _, p := range s.Market {
		assert.Greater(t, p.BaseValue, 0)
		assert.Greater(t, p.Cost, 0)
		assert.LessOrEqual(t, p.Cost, p.BaseValue)
	}
}

func TestAdvanceDayMonthlyCadence(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.99))

	for i := 0; i < 29; i++ {
		eng.AdvanceDay()
	}
	s := eng.Snapshot()
	assert.Equal(t, 29, s.Day)
	assert.Equal(t, 0, s.LastRentCollectionDay, "no month boundary before day 30")
	assert.Equal(t, 0, s.LastCentralBankAdjustmentDay)

	eng.AdvanceDay()
	s = eng.Snapshot()
	assert.Equal(t, 30, s.Day)
	assert.Equal(t, 30, s.LastRentCollectionDay)
	assert.Equal(t, 30, s.LastCentralBankAdjustmentDay)
	assert.Greater(t, s.CentralBankRate, DefaultConfig().StartingRate, "0.99 draws drift the rate up")
}

func TestAdvanceDayCatchesUpStaleMonths(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.99))

	// A run restored 89 days behind its last monthly settlement.
	s := eng.Snapshot()
	s.Day = 89
	s.Balance = 50000
	h := makeHolding("H1")
	h.Tenant = &property.Tenant{MonthlyRent: 1000, LeaseMonthsRemaining: 12}
	h.Mortgage = rules.NewMortgage(h.Cost, 0.20, 25, 5, false, 0.0375)
	s.Portfolio = append(s.Portfolio, h)
	eng.Restore(s)

	eng.AdvanceDay()

	s = eng.Snapshot()
	require.Len(t, s.Portfolio, 1)
	got := s.Portfolio[0]
	m := got.Mortgage

	assert.Equal(t, 90, s.Day)
	assert.Equal(t, 90, s.LastRentCollectionDay, "three whole months settle in a single advance")
	assert.Equal(t, 9, got.Tenant.LeaseMonthsRemaining, "three lease months consumed")
	assert.Equal(t, 3, m.ElapsedMonths)
	assert.Equal(t, 297, m.RemainingTermMonths)
	assert.InDelta(t, 50000+3*1000-3*m.MonthlyPayment, s.Balance, 1e-6,
		"three rents in, three mortgage payments out")

	// The bank catches up too, one draw per elapsed 30-day interval.
	assert.Equal(t, 90, s.LastCentralBankAdjustmentDay)
	assert.InDelta(t, 0.0522, s.CentralBankRate, 1e-9, "three +0.49pp steps from 3.75%")
}

func TestRateHeldOnZeroStep(t *testing.T) {
	eng, log := newTestEngine(constRand(0.5)) // (0.5*2-1)*step = 0

	for i := 0; i < 30; i++ {
		eng.AdvanceDay()
	}
	s := eng.Snapshot()
	assert.Equal(t, DefaultConfig().StartingRate, s.CentralBankRate)

	held := false
	for _, e := range log.Replay() {
		if e.Kind == events.KindRateChange {
			held = true
		}
	}
	assert.True(t, held, "a held rate still records a rate entry")
}

func TestPurchaseWithCash(t *testing.T) {
	eng, log := newTestEngine(constRand(0.3))
	s := eng.Snapshot()
	target := s.Market[0]

	require.NoError(t, eng.PurchaseWithCash(target.ID))

	s = eng.Snapshot()
	assert.Equal(t, DefaultConfig().StartingBalance-float64(target.Cost), s.Balance)
	require.Len(t, s.Portfolio, 1)
	assert.Len(t, s.Market, DefaultConfig().MarketMinSize-1)

	h := s.Portfolio[0]
	assert.Equal(t, target.ID, h.ID)
	assert.True(t, h.Listed, "a new purchase goes straight onto the rental market")
	assert.Equal(t, 12, h.Plan.LeaseMonths)

	entries := log.Replay()
	require.NotEmpty(t, entries)
	assert.Equal(t, events.KindPurchase, entries[0].Kind)
}

func TestPurchaseUnknownListing(t *testing.T) {
	eng, log := newTestEngine(constRand(0.99))

	err := eng.PurchaseWithCash("nope")
	assert.ErrorIs(t, err, ErrInvalidSelection)

	// The rejection itself is part of the observable history.
	entries := log.Replay()
	require.Len(t, entries, 1)
	assert.Equal(t, events.KindRejected, entries[0].Kind)

	s := eng.Snapshot()
	assert.Equal(t, DefaultConfig().StartingBalance, s.Balance)
	assert.Empty(t, s.Portfolio)
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.99))
	s := eng.Snapshot()
	target := s.Market[0]

	s.Balance = 10
	eng.Restore(s)

	err := eng.PurchaseWithCash(target.ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	s = eng.Snapshot()
	assert.Equal(t, float64(10), s.Balance, "a rejected purchase must not move money")
	assert.Len(t, s.Market, DefaultConfig().MarketMinSize, "listing stays on the market")
}

func TestFinancePurchase(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.99))
	target := eng.Snapshot().Market[0]

	// Off-grid values snap: 0.22 -> 0.20, 24y -> 25y, 6y fix -> 5y.
	require.NoError(t, eng.FinancePurchase(target.ID, 0.22, 24, 6, false))

	s := eng.Snapshot()
	require.Len(t, s.Portfolio, 1)
	m := s.Portfolio[0].Mortgage
	require.NotNil(t, m)

	assert.Equal(t, 0.20, m.DepositRatio)
	assert.Equal(t, 300, m.TermMonths)
	assert.Equal(t, 60, m.FixedPeriodMonths)
	assert.Equal(t, target.Cost-m.Deposit, m.Principal)
	assert.Equal(t, DefaultConfig().StartingBalance-float64(m.Deposit), s.Balance,
		"only the deposit leaves the balance")
}

func TestFinancePurchaseInvalidRatio(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.99))
	target := eng.Snapshot().Market[0]

	assert.ErrorIs(t, eng.FinancePurchase(target.ID, 0, 25, 5, false), ErrInvalidSelection)
	assert.ErrorIs(t, eng.FinancePurchase(target.ID, 1.2, 25, 5, false), ErrInvalidSelection)
}

func TestSellProperty(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.3))
	target := eng.Snapshot().Market[0]
	require.NoError(t, eng.PurchaseWithCash(target.ID))
	balanceAfterBuy := eng.Snapshot().Balance

	require.NoError(t, eng.SellProperty(target.ID))

	s := eng.Snapshot()
	assert.Empty(t, s.Portfolio)
	// Same-day resale at the same condition returns the purchase price.
	assert.Equal(t, balanceAfterBuy+float64(target.Cost), s.Balance)
}

func TestSellBlockedBelowCriticalCondition(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.3))
	target := eng.Snapshot().Market[0]
	require.NoError(t, eng.PurchaseWithCash(target.ID))

	s := eng.Snapshot()
	s.Portfolio[0].MaintenancePercent = 20
	eng.Restore(s)

	assert.ErrorIs(t, eng.SellProperty(target.ID), ErrIneligibleOperation)
	assert.Len(t, eng.Snapshot().Portfolio, 1)
}

func TestSellSettlesMortgage(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.99))
	target := eng.Snapshot().Market[0]
	require.NoError(t, eng.FinancePurchase(target.ID, 0.20, 25, 5, false))
	balanceAfterBuy := eng.Snapshot().Balance
	outstanding := eng.Snapshot().Portfolio[0].Mortgage.RemainingBalance

	require.NoError(t, eng.SellProperty(target.ID))

	s := eng.Snapshot()
	assert.Empty(t, s.Portfolio)
	assert.InDelta(t, balanceAfterBuy+float64(target.Cost)-outstanding, s.Balance, 1e-6)
}

func TestScheduleMaintenance(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.3))
	target := eng.Snapshot().Market[0]
	require.NoError(t, eng.PurchaseWithCash(target.ID))

	balanceBefore := eng.Snapshot().Balance
	require.NoError(t, eng.ScheduleMaintenance(target.ID))

	s := eng.Snapshot()
	h := s.Portfolio[0]
	require.NotNil(t, h.WorkOrder)
	assert.Equal(t, DefaultConfig().MaintenanceDurationMonths, h.WorkOrder.MonthsRemaining)
	assert.Equal(t, 0, h.WorkOrder.StartDelayMonths, "vacant property starts work immediately")
	assert.True(t, h.MarketingPaused)
	assert.Equal(t, balanceBefore-float64(h.WorkOrder.Cost), s.Balance, "the quote is debited up front")

	// Double booking is refused.
	assert.ErrorIs(t, eng.ScheduleMaintenance(target.ID), ErrIneligibleOperation)
}

func TestScheduleMaintenanceDelayedByLease(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.3))
	target := eng.Snapshot().Market[0]
	require.NoError(t, eng.PurchaseWithCash(target.ID))

	s := eng.Snapshot()
	s.Portfolio[0].Tenant = &property.Tenant{MonthlyRent: 950, LeaseMonthsRemaining: 9}
	eng.Restore(s)

	require.NoError(t, eng.ScheduleMaintenance(target.ID))

	h := eng.Snapshot().Portfolio[0]
	require.NotNil(t, h.WorkOrder)
	assert.Equal(t, 9, h.WorkOrder.StartDelayMonths, "work waits out the sitting lease")
}

func TestSetRentPlanSnapsAndRelists(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.3))
	target := eng.Snapshot().Market[0]
	require.NoError(t, eng.PurchaseWithCash(target.ID))

	require.NoError(t, eng.SetRentPlan(target.ID, 20, 0.055))

	h := eng.Snapshot().Portfolio[0]
	assert.Equal(t, 18, h.Plan.LeaseMonths)
	assert.Equal(t, 0.05, h.Plan.RateOffset)
	assert.True(t, h.Listed)

	assert.ErrorIs(t, eng.SetRentPlan(target.ID, 0, 0.05), ErrInvalidSelection)
}

func TestRefinanceRequiresVariableRate(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.99))
	target := eng.Snapshot().Market[0]
	require.NoError(t, eng.FinancePurchase(target.ID, 0.20, 25, 5, false))

	// Still inside the fix.
	assert.ErrorIs(t, eng.RefinanceMortgage(target.ID, 5), ErrIneligibleOperation)

	s := eng.Snapshot()
	s.Portfolio[0].Mortgage.VariableRateActive = true
	eng.Restore(s)

	require.NoError(t, eng.RefinanceMortgage(target.ID, 5))

	m := eng.Snapshot().Portfolio[0].Mortgage
	assert.False(t, m.VariableRateActive)
	assert.Equal(t, 60, m.FixedPeriodMonths)
	assert.Equal(t, 0, m.ElapsedMonths)
}

func TestResetStartsFresh(t *testing.T) {
	eng, _ := newTestEngine(constRand(0.3))
	target := eng.Snapshot().Market[0]
	require.NoError(t, eng.PurchaseWithCash(target.ID))
	for i := 0; i < 10; i++ {
		eng.AdvanceDay()
	}

	eng.Reset()

	s := eng.Snapshot()
	assert.Equal(t, 0, s.Day)
	assert.Equal(t, DefaultConfig().StartingBalance, s.Balance)
	assert.Empty(t, s.Portfolio)
	assert.Len(t, s.Market, DefaultConfig().MarketMinSize)
}

func TestHistoryRingCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryCap = 5
	eng := NewEngine(cfg, constRand(0.99), events.NewLog(nil), logger.NewLogger())

	for i := 0; i < 200; i++ {
		eng.AdvanceDay()
	}

	s := eng.Snapshot()
	assert.LessOrEqual(t, len(s.History), 5)
}
