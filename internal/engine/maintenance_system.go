package engine

import (
	"fmt"

	"github.com/harwoodsim/property-tycoon/server/internal/domain/rules"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
)

// MaintenanceSystem erodes property condition daily and runs scheduled
// restoration work to completion.
type MaintenanceSystem struct {
	cfg    Config
	logger *logger.Logger
}

// NewMaintenanceSystem creates the maintenance processor.
func NewMaintenanceSystem(cfg Config, log *logger.Logger) *MaintenanceSystem {
	return &MaintenanceSystem{cfg: cfg, logger: log}
}

// DecayDaily applies one day's maintenance decay to every property, market
// and portfolio alike. Occupied properties decay slower; a property under
// active restoration decays at the vacant rate until the work completes.
// Cost is recomputed together with the percentage in the same step.
func (ma *MaintenanceSystem) DecayDaily(s *GameState) {
	for _, p := range s.Market {
		decay := ma.cfg.Decay.DailyDecay(p.InheritedTenant != nil)
		rules.ApplyMaintenance(p, p.MaintenancePercent-decay)
	}
	for _, h := range s.Portfolio {
		decay := ma.cfg.Decay.DailyDecay(h.Occupied() && !h.WorkOrder.Active())
		rules.ApplyMaintenance(&h.Property, h.MaintenancePercent-decay)
	}
}

// ProcessMonth counts scheduled work orders down: first through their start
// delay, then through the work itself. Completion snaps condition to exactly
// 100%.
func (ma *MaintenanceSystem) ProcessMonth(s *GameState) {
	for _, h := range s.Portfolio {
		w := h.WorkOrder
		if w == nil {
			continue
		}

		if w.StartDelayMonths > 0 {
			w.StartDelayMonths--
			if w.StartDelayMonths == 0 {
				s.Record(events.KindMaintenance, h.ID, fmt.Sprintf("Restoration work started at %s", h.Name))
			}
			continue
		}

		w.MonthsRemaining--
		if w.MonthsRemaining > 0 {
			continue
		}

		rules.ApplyMaintenance(&h.Property, 100)
		h.WorkOrder = nil
		h.MarketingPaused = false
		s.Record(events.KindMaintenance, h.ID, fmt.Sprintf(
			"Restoration complete at %s; condition back to 100%%, value %s", h.Name, money(h.Cost)))
		ma.logger.Event("MAINTENANCE_DONE", h.ID, h.Name)
	}
}
