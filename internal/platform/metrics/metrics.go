// Package metrics provides observability for the simulation server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// History persistence metrics
	HistoryWrites        int64
	HistoryWriteLatSum   int64
	HistoryWriteLatMax   int64
	HistoryWriteErrors   int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Player action metrics
	ActionsAccepted int64
	ActionsRejected int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordHistoryWrite records a history entry write to the database.
func (c *Collector) RecordHistoryWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.HistoryWrites, 1)
	atomic.AddInt64(&c.HistoryWriteLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.HistoryWriteLatMax) {
		atomic.StoreInt64(&c.HistoryWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.HistoryWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordAction records a player action outcome.
func (c *Collector) RecordAction(accepted bool) {
	if accepted {
		atomic.AddInt64(&c.ActionsAccepted, 1)
	} else {
		atomic.AddInt64(&c.ActionsRejected, 1)
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	historyWrites := atomic.LoadInt64(&c.HistoryWrites)

	var tickAvg, writeAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if historyWrites > 0 {
		writeAvg = float64(atomic.LoadInt64(&c.HistoryWriteLatSum)) / float64(historyWrites) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"history": map[string]interface{}{
			"written":          historyWrites,
			"avg_write_lat_ms": writeAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.HistoryWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.HistoryWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"actions": map[string]interface{}{
			"accepted": atomic.LoadInt64(&c.ActionsAccepted),
			"rejected": atomic.LoadInt64(&c.ActionsRejected),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP tycoon_tick_count Total simulated days processed\n")
		fmt.Fprintf(w, "# TYPE tycoon_tick_count counter\n")
		fmt.Fprintf(w, "tycoon_tick_count %d\n\n", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP tycoon_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE tycoon_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "tycoon_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP tycoon_history_written Total history entries persisted\n")
		fmt.Fprintf(w, "# TYPE tycoon_history_written counter\n")
		fmt.Fprintf(w, "tycoon_history_written %d\n\n", atomic.LoadInt64(&c.HistoryWrites))

		fmt.Fprintf(w, "# HELP tycoon_history_write_errors Total history write errors\n")
		fmt.Fprintf(w, "# TYPE tycoon_history_write_errors counter\n")
		fmt.Fprintf(w, "tycoon_history_write_errors %d\n\n", atomic.LoadInt64(&c.HistoryWriteErrors))

		fmt.Fprintf(w, "# HELP tycoon_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE tycoon_ws_connections gauge\n")
		fmt.Fprintf(w, "tycoon_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP tycoon_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE tycoon_ws_messages_total counter\n")
		fmt.Fprintf(w, "tycoon_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "tycoon_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		fmt.Fprintf(w, "# HELP tycoon_actions_total Total player actions by outcome\n")
		fmt.Fprintf(w, "# TYPE tycoon_actions_total counter\n")
		fmt.Fprintf(w, "tycoon_actions_total{outcome=\"accepted\"} %d\n", atomic.LoadInt64(&c.ActionsAccepted))
		fmt.Fprintf(w, "tycoon_actions_total{outcome=\"rejected\"} %d\n", atomic.LoadInt64(&c.ActionsRejected))
	}
}
