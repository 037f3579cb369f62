// Package cache provides Redis-based caching of game-state snapshots for
// quick reads. The cache is never the source of truth; SQLite is.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RedisClient is an interface for the Redis operations the cache needs.
// This allows for easy mocking in tests.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// SnapshotCache stores the latest serialized game state per run.
type SnapshotCache struct {
	client     RedisClient
	expiration time.Duration
}

// NewSnapshotCache creates a snapshot cache instance.
func NewSnapshotCache(client RedisClient) *SnapshotCache {
	return &SnapshotCache{
		client:     client,
		expiration: 15 * time.Minute,
	}
}

// CachedSnapshot is what actually gets stored: the state plus when it was
// taken, so stale reads are detectable.
type CachedSnapshot struct {
	StateJSON json.RawMessage `json:"state_json"`
	Day       int             `json:"day"`
	TakenAt   int64           `json:"taken_at"` // Unix timestamp
}

// SetSnapshot caches the current game state for a run.
func (c *SnapshotCache) SetSnapshot(ctx context.Context, runID string, day int, stateJSON []byte) error {
	snap := CachedSnapshot{
		StateJSON: stateJSON,
		Day:       day,
		TakenAt:   time.Now().Unix(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.client.Set(ctx, c.snapshotKey(runID), data, c.expiration)
}

// GetSnapshot retrieves the cached game state for a run. A cache miss
// returns a nil snapshot with no error.
func (c *SnapshotCache) GetSnapshot(ctx context.Context, runID string) (*CachedSnapshot, error) {
	data, err := c.client.Get(ctx, c.snapshotKey(runID))
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	var snap CachedSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Invalidate removes the cached state for a run.
func (c *SnapshotCache) Invalidate(ctx context.Context, runID string) error {
	return c.client.Del(ctx, c.snapshotKey(runID))
}

func (c *SnapshotCache) snapshotKey(runID string) string {
	return fmt.Sprintf("tycoon:run:%s:snapshot", runID)
}
