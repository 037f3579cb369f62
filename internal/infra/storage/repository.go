// Package storage provides SQLite persistence for the simulation: the
// durable history log and periodic full-state snapshots.
package storage

import (
	"context"
	"time"

	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/metrics"
)

// HistoryRepository stores the immutable history log.
type HistoryRepository interface {
	Append(ctx context.Context, entry events.Entry) error
	GetByDay(ctx context.Context, day int) ([]events.Entry, error)
	GetByProperty(ctx context.Context, propertyID string) ([]events.Entry, error)
	GetRecent(ctx context.Context, limit int) ([]events.Entry, error)
}

// StateRepository stores full game-state snapshots keyed by run ID.
type StateRepository interface {
	Upsert(ctx context.Context, runID string, stateJSON []byte) error
	Load(ctx context.Context, runID string) ([]byte, error)
}

// HistoryPersister adapts a HistoryRepository to the events.Persister
// interface so the log can write through without knowing about SQL.
type HistoryPersister struct {
	repo HistoryRepository
}

// NewHistoryPersister wraps a repository as a log persister.
func NewHistoryPersister(repo HistoryRepository) *HistoryPersister {
	return &HistoryPersister{repo: repo}
}

// Append writes one entry and records the write latency.
func (p *HistoryPersister) Append(entry events.Entry) error {
	start := time.Now()
	err := p.repo.Append(context.Background(), entry)
	metrics.Get().RecordHistoryWrite(time.Since(start), err)
	return err
}
