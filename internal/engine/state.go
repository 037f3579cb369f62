package engine

import (
	"github.com/harwoodsim/property-tycoon/server/internal/domain/property"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
)

// GameState is the root snapshot of a simulation run. Engine operations work
// on a clone and commit it whole, so a failed or panicking operation never
// leaves a partially mutated state behind.
type GameState struct {
	Balance         float64               `json:"balance"`
	Day             int                   `json:"day"`
	CentralBankRate float64               `json:"central_bank_rate"`
	Market          []*property.Property  `json:"market"`
	Portfolio       []*property.Holding   `json:"portfolio"`
	History         []events.Entry        `json:"history"`

	LastCentralBankAdjustmentDay int `json:"last_central_bank_adjustment_day"`
	LastMarketGenerationDay      int `json:"last_market_generation_day"`
	LastRentCollectionDay        int `json:"last_rent_collection_day"`

	historyCap int
	pending    []events.Entry // entries recorded since the last commit
}

// NewGameState returns a fresh state with an empty market.
func NewGameState(cfg Config) *GameState {
	return &GameState{
		Balance:         cfg.StartingBalance,
		CentralBankRate: cfg.StartingRate,
		Market:          make([]*property.Property, 0, cfg.MarketMaxSize),
		Portfolio:       make([]*property.Holding, 0),
		History:         make([]events.Entry, 0, cfg.HistoryCap),
		historyCap:      cfg.HistoryCap,
	}
}

// Record appends a history entry, dropping the oldest beyond the cap. The
// entry is also queued for the engine to flush to the observable log on
// commit.
func (s *GameState) Record(kind events.Kind, propertyID, message string) {
	e := events.NewEntry(kind, s.Day, propertyID, message)
	s.History = append(s.History, e)
	if len(s.History) > s.historyCap {
		s.History = s.History[len(s.History)-s.historyCap:]
	}
	s.pending = append(s.pending, e)
}

// drainPending returns and clears the entries recorded since the last commit.
func (s *GameState) drainPending() []events.Entry {
	p := s.pending
	s.pending = nil
	return p
}

// Clone returns a deep copy of the state. Pending entries do not carry over.
func (s *GameState) Clone() *GameState {
	cp := &GameState{
		Balance:                      s.Balance,
		Day:                          s.Day,
		CentralBankRate:              s.CentralBankRate,
		Market:                       make([]*property.Property, len(s.Market)),
		Portfolio:                    make([]*property.Holding, len(s.Portfolio)),
		History:                      append([]events.Entry(nil), s.History...),
		LastCentralBankAdjustmentDay: s.LastCentralBankAdjustmentDay,
		LastMarketGenerationDay:      s.LastMarketGenerationDay,
		LastRentCollectionDay:        s.LastRentCollectionDay,
		historyCap:                   s.historyCap,
	}
	for i, p := range s.Market {
		cp.Market[i] = p.Clone()
	}
	for i, h := range s.Portfolio {
		cp.Portfolio[i] = h.Clone()
	}
	return cp
}

// listing finds a market listing by ID.
func (s *GameState) listing(id string) (int, *property.Property) {
	for i, p := range s.Market {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

// holding finds a portfolio property by ID.
func (s *GameState) holding(id string) (int, *property.Holding) {
	for i, h := range s.Portfolio {
		if h.ID == id {
			return i, h
		}
	}
	return -1, nil
}

// removeListing drops the listing at index i, preserving order.
func (s *GameState) removeListing(i int) {
	s.Market = append(s.Market[:i], s.Market[i+1:]...)
}

// removeHolding drops the holding at index i, preserving order.
func (s *GameState) removeHolding(i int) {
	s.Portfolio = append(s.Portfolio[:i], s.Portfolio[i+1:]...)
}
