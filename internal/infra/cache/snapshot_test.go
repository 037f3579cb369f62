package cache

import (
	"context"
	"testing"
	"time"
)

// fakeRedis is an in-memory RedisClient for tests.
type fakeRedis struct {
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.data[key] = string(value)
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := NewSnapshotCache(newFakeRedis())
	ctx := context.Background()

	stateJSON := []byte(`{"day":42,"balance":125000}`)
	if err := c.SetSnapshot(ctx, "RUN_1", 42, stateJSON); err != nil {
		t.Fatalf("SetSnapshot failed: %v", err)
	}

	snap, err := c.GetSnapshot(ctx, "RUN_1")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if snap == nil {
		t.Fatalf("Expected a cached snapshot")
	}
	if snap.Day != 42 {
		t.Errorf("Day = %d, want 42", snap.Day)
	}
	if string(snap.StateJSON) != string(stateJSON) {
		t.Errorf("StateJSON = %s, want %s", snap.StateJSON, stateJSON)
	}
	if snap.TakenAt == 0 {
		t.Errorf("Snapshot must carry its capture time")
	}
}

func TestSnapshotMissReturnsNil(t *testing.T) {
	c := NewSnapshotCache(newFakeRedis())

	snap, err := c.GetSnapshot(context.Background(), "NO_SUCH_RUN")
	if err != nil {
		t.Fatalf("A miss must not be an error: %v", err)
	}
	if snap != nil {
		t.Errorf("A miss must return a nil snapshot, got %+v", snap)
	}
}

func TestSnapshotInvalidate(t *testing.T) {
	c := NewSnapshotCache(newFakeRedis())
	ctx := context.Background()

	if err := c.SetSnapshot(ctx, "RUN_1", 7, []byte(`{}`)); err != nil {
		t.Fatalf("SetSnapshot failed: %v", err)
	}
	if err := c.Invalidate(ctx, "RUN_1"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	snap, err := c.GetSnapshot(ctx, "RUN_1")
	if err != nil || snap != nil {
		t.Errorf("Invalidated run should read as a miss, got %+v, %v", snap, err)
	}
}
