package engine

import (
	"context"
	"sync"
	"time"

	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/metrics"
)

// DefaultTickInterval is the real-time wait between simulated days.
const DefaultTickInterval = 2 * time.Second

// Ticker drives the engine in real time: one tick, one simulated day. It
// knows nothing about properties or money, only pacing.
type Ticker struct {
	engine *Engine
	logger *logger.Logger

	mu       sync.Mutex
	interval time.Duration
	paused   int // nesting counter, >0 means paused
	reload   chan struct{}
	stopChan chan struct{}
}

// NewTicker creates the real-time driver for an engine.
func NewTicker(e *Engine, log *logger.Logger) *Ticker {
	return &Ticker{
		engine:   e,
		logger:   log,
		interval: DefaultTickInterval,
		reload:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
}

// Start begins the loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Ticker started at %s per simulated day", t.currentInterval())

	ticker := time.NewTicker(t.currentInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Ticker stopped by context")
			return
		case <-t.stopChan:
			t.logger.Info("Ticker stopped manually")
			return
		case <-t.reload:
			ticker.Reset(t.currentInterval())
		case <-ticker.C:
			if t.isPaused() {
				continue
			}
			start := time.Now()
			t.engine.AdvanceDay()
			metrics.Get().RecordTick(time.Since(start))
		}
	}
}

// Stop ends the loop permanently.
func (t *Ticker) Stop() {
	close(t.stopChan)
}

// SetGameSpeed changes the real-time interval between simulated days.
// Sub-100ms intervals are clamped so a misbehaving client cannot spin the
// loop.
func (t *Ticker) SetGameSpeed(intervalMs int) {
	if intervalMs < 100 {
		intervalMs = 100
	}
	t.mu.Lock()
	t.interval = time.Duration(intervalMs) * time.Millisecond
	t.mu.Unlock()

	select {
	case t.reload <- struct{}{}:
	default:
	}
	t.logger.Info("Game speed set to %dms per simulated day", intervalMs)
}

// Pause suspends day advancement. Calls nest: each Pause needs a matching
// Resume.
func (t *Ticker) Pause() {
	t.mu.Lock()
	t.paused++
	t.mu.Unlock()
}

// Resume lifts one level of pause.
func (t *Ticker) Resume() {
	t.mu.Lock()
	if t.paused > 0 {
		t.paused--
	}
	t.mu.Unlock()
}

func (t *Ticker) isPaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused > 0
}

func (t *Ticker) currentInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}
