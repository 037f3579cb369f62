// Package events provides the observable history log of the simulation.
// Entries describe what happened in human-readable form; engine behavior
// must never depend on their contents, only on the numeric game state.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind categorizes a history entry.
type Kind string

const (
	KindPurchase    Kind = "PURCHASE"
	KindSale        Kind = "SALE"
	KindForcedSale  Kind = "FORCED_SALE"
	KindRent        Kind = "RENT"
	KindTenancy     Kind = "TENANCY"
	KindMortgage    Kind = "MORTGAGE"
	KindMaintenance Kind = "MAINTENANCE"
	KindMarket      Kind = "MARKET"
	KindRateChange  Kind = "RATE_CHANGE"
	KindRejected    Kind = "REJECTED"
	KindSystem      Kind = "SYSTEM"
)

// Entry is an immutable record of something that happened in the simulation.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       Kind      `json:"kind"`
	Day        int       `json:"day"`
	PropertyID string    `json:"property_id,omitempty"`
	Message    string    `json:"message"`
}

// Persister defines how an entry is durably stored.
type Persister interface {
	Append(entry Entry) error
}

// Log is the in-memory append-only history of the simulation, with an
// optional write-behind persister.
type Log struct {
	mu      sync.RWMutex
	entries []Entry

	queue chan Entry
	done  chan struct{}
}

// NewLog creates a history log. With a persister, a single writer goroutine
// drains entries off the tick path in append order.
func NewLog(persister Persister) *Log {
	l := &Log{entries: make([]Entry, 0)}
	if persister != nil {
		l.queue = make(chan Entry, 256)
		l.done = make(chan struct{})
		go func() {
			for e := range l.queue {
				_ = persister.Append(e)
			}
			close(l.done)
		}()
	}
	return l
}

// Append adds a new entry to the log. Entries are immutable once appended.
func (l *Log) Append(entry Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	if l.queue != nil {
		l.queue <- entry
	}
}

// Close drains the write-behind queue and waits for the persister to finish.
// Append must not be called after Close.
func (l *Log) Close() {
	if l.queue != nil {
		close(l.queue)
		<-l.done
	}
}

// Replay returns the full history for broadcast or reconstruction.
func (l *Log) Replay() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries
}

// GetByDay returns all entries recorded on a specific simulated day.
func (l *Log) GetByDay(day int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Entry
	for _, e := range l.entries {
		if e.Day == day {
			result = append(result, e)
		}
	}
	return result
}

// GetByProperty returns all entries that reference a specific property.
func (l *Log) GetByProperty(propertyID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Entry
	for _, e := range l.entries {
		if e.PropertyID == propertyID {
			result = append(result, e)
		}
	}
	return result
}

// NewEntry builds an entry with a fresh identifier and timestamp.
func NewEntry(kind Kind, day int, propertyID, message string) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		Kind:       kind,
		Day:        day,
		PropertyID: propertyID,
		Message:    message,
	}
}
