package engine

import (
	"fmt"
	"math"

	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
)

// RateBankSystem drifts the central bank rate within bounds on a fixed
// cadence.
type RateBankSystem struct {
	cfg    Config
	rng    RandFunc
	logger *logger.Logger
}

// NewRateBankSystem creates the central bank rate controller.
func NewRateBankSystem(cfg Config, rng RandFunc, log *logger.Logger) *RateBankSystem {
	return &RateBankSystem{cfg: cfg, rng: rng, logger: log}
}

// MaybeAdjust applies one rate adjustment per elapsed interval since the last
// adjustment day. When several intervals are caught up in a single call, each
// gets exactly one draw — per interval, not per elapsed day.
func (rb *RateBankSystem) MaybeAdjust(s *GameState) {
	for s.Day-s.LastCentralBankAdjustmentDay >= rb.cfg.RateAdjustmentIntervalDays {
		old := s.CentralBankRate
		step := (rb.rng()*2 - 1) * rb.cfg.MaxRateStep
		next := old + step
		if next < rb.cfg.MinimumRate {
			next = rb.cfg.MinimumRate
		}
		if next > rb.cfg.MaximumRate {
			next = rb.cfg.MaximumRate
		}
		next = math.Round(next*10000) / 10000

		s.CentralBankRate = next
		s.LastCentralBankAdjustmentDay += rb.cfg.RateAdjustmentIntervalDays

		var msg string
		switch {
		case next > old:
			msg = fmt.Sprintf("Central bank raised the base rate from %s to %s", percent(old), percent(next))
		case next < old:
			msg = fmt.Sprintf("Central bank cut the base rate from %s to %s", percent(old), percent(next))
		default:
			msg = fmt.Sprintf("Central bank held the base rate at %s", percent(next))
		}
		s.Record(events.KindRateChange, "", msg)
		rb.logger.Event("RATE_ADJUSTMENT", "central-bank", msg)
	}
}
