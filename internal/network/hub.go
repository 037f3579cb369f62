package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/harwoodsim/property-tycoon/server/internal/engine"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/metrics"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex

	engine *engine.Engine
	ticker *engine.Ticker
	logger *logger.Logger
}

// NewHub initializes a new WebSocket Hub.
func NewHub(e *engine.Engine, t *engine.Ticker, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		engine:     e,
		ticker:     t,
		logger:     log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.Get().RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.Get().RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// envelope wraps every outbound message so clients can route by type.
type envelope struct {
	Type    string      `json:"type"` // "history" or "snapshot"
	Payload interface{} `json:"payload"`
}

// BroadcastEntry serializes a history entry and sends it to all clients.
func (h *Hub) BroadcastEntry(entry events.Entry) {
	payload, err := json.Marshal(envelope{Type: "history", Payload: entry})
	if err != nil {
		h.logger.Error("Failed to serialize history entry for broadcast: %v", err)
		metrics.Get().RecordWSError()
		return
	}
	h.broadcast <- payload
}

// BroadcastSnapshot pushes the full game state to all clients.
func (h *Hub) BroadcastSnapshot(s *engine.GameState) {
	payload, err := json.Marshal(envelope{Type: "snapshot", Payload: s})
	if err != nil {
		h.logger.Error("Failed to serialize state snapshot for broadcast: %v", err)
		metrics.Get().RecordWSError()
		return
	}
	h.broadcast <- payload
}

// StartLogPoller spawns a goroutine that polls the history log and pushes new
// entries to connected clients, followed by a fresh snapshot whenever
// anything happened. Polling keeps the Hub decoupled from the engine's tick
// loop while observing the same log.
func (h *Hub) StartLogPoller(ctx context.Context, log *events.Log) {
	go func() {
		poll := time.NewTicker(200 * time.Millisecond)
		defer poll.Stop()

		lastSeen := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
				all := log.Replay()
				if len(all) <= lastSeen {
					continue
				}
				for _, entry := range all[lastSeen:] {
					h.BroadcastEntry(entry)
				}
				lastSeen = len(all)
				h.BroadcastSnapshot(h.engine.Snapshot())
			}
		}
	}()
}
