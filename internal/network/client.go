package network

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harwoodsim/property-tycoon/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Client represents an active WebSocket connection.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	lastActionTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type       string          `json:"type"`        // "BUY_CASH", "BUY_MORTGAGE", "SELL", etc.
	PropertyID string          `json:"property_id"` // Target listing or holding
	Payload    json.RawMessage `json:"payload"`     // Action-specific data
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection to the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse PlayerAction from WebSocket: %v", err)
			metrics.Get().RecordWSError()
			continue
		}

		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	// Basic flood protection: one action per 200ms per connection.
	if time.Since(c.lastActionTime) < 200*time.Millisecond {
		c.hub.logger.Warn("Rate limit exceeded for WebSocket action %s", action.Type)
		return
	}
	c.lastActionTime = time.Now()

	eng := c.hub.engine
	var err error

	switch action.Type {
	case "BUY_CASH":
		err = eng.PurchaseWithCash(action.PropertyID)
	case "BUY_MORTGAGE":
		err = c.handleFinance(action)
	case "SELL":
		err = eng.SellProperty(action.PropertyID)
	case "SCHEDULE_MAINTENANCE":
		err = eng.ScheduleMaintenance(action.PropertyID)
	case "SET_RENT_PLAN":
		err = c.handleRentPlan(action)
	case "SET_AUTO_RELIST":
		err = c.handleAutoRelist(action)
	case "REFINANCE":
		err = c.handleRefinance(action)
	case "SET_SPEED":
		c.handleSpeed(action.Payload)
	case "PAUSE":
		c.hub.ticker.Pause()
	case "RESUME":
		c.hub.ticker.Resume()
	case "RESET":
		eng.Reset()
	default:
		c.hub.logger.Warn("Unknown PlayerAction type: %s", action.Type)
		return
	}

	metrics.Get().RecordAction(err == nil)
	if err != nil {
		c.hub.logger.Warn("Action %s rejected: %v", action.Type, err)
	}
}

func (c *Client) handleFinance(action PlayerAction) error {
	var parsed struct {
		DepositRatio     float64 `json:"deposit_ratio"`
		TermYears        int     `json:"term_years"`
		FixedPeriodYears int     `json:"fixed_period_years"`
		InterestOnly     bool    `json:"interest_only"`
	}
	if err := json.Unmarshal(action.Payload, &parsed); err != nil {
		return err
	}
	return c.hub.engine.FinancePurchase(action.PropertyID,
		parsed.DepositRatio, parsed.TermYears, parsed.FixedPeriodYears, parsed.InterestOnly)
}

func (c *Client) handleRentPlan(action PlayerAction) error {
	var parsed struct {
		LeaseMonths int     `json:"lease_months"`
		RateOffset  float64 `json:"rate_offset"`
	}
	if err := json.Unmarshal(action.Payload, &parsed); err != nil {
		return err
	}
	return c.hub.engine.SetRentPlan(action.PropertyID, parsed.LeaseMonths, parsed.RateOffset)
}

func (c *Client) handleAutoRelist(action PlayerAction) error {
	var parsed struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.Unmarshal(action.Payload, &parsed); err != nil {
		return err
	}
	return c.hub.engine.SetAutoRelist(action.PropertyID, parsed.Enabled)
}

func (c *Client) handleRefinance(action PlayerAction) error {
	var parsed struct {
		FixedPeriodYears int `json:"fixed_period_years"`
	}
	if err := json.Unmarshal(action.Payload, &parsed); err != nil {
		return err
	}
	return c.hub.engine.RefinanceMortgage(action.PropertyID, parsed.FixedPeriodYears)
}

func (c *Client) handleSpeed(raw json.RawMessage) {
	var parsed struct {
		IntervalMs int `json:"interval_ms"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.hub.logger.Warn("Failed to parse SET_SPEED payload: %v", err)
		return
	}
	c.hub.ticker.SetGameSpeed(parsed.IntervalMs)
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
