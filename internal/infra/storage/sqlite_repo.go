package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harwoodsim/property-tycoon/server/internal/events"
)

// SQLiteHistoryRepository implements HistoryRepository for SQLite.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

func (r *SQLiteHistoryRepository) Append(ctx context.Context, entry events.Entry) error {
	query := `
		INSERT INTO history (id, timestamp, kind, day, property_id, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Timestamp, string(entry.Kind), entry.Day, entry.PropertyID, entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

func (r *SQLiteHistoryRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]events.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []events.Entry
	for rows.Next() {
		var e events.Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.Timestamp, &kind, &e.Day, &e.PropertyID, &e.Message); err != nil {
			return nil, err
		}
		e.Kind = events.Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteHistoryRepository) GetByDay(ctx context.Context, day int) ([]events.Entry, error) {
	query := `SELECT id, timestamp, kind, day, property_id, message FROM history WHERE day = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, day)
}

func (r *SQLiteHistoryRepository) GetByProperty(ctx context.Context, propertyID string) ([]events.Entry, error) {
	query := `SELECT id, timestamp, kind, day, property_id, message FROM history WHERE property_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, propertyID)
}

func (r *SQLiteHistoryRepository) GetRecent(ctx context.Context, limit int) ([]events.Entry, error) {
	query := `SELECT id, timestamp, kind, day, property_id, message FROM history ORDER BY timestamp DESC LIMIT ?`
	entries, err := r.getMany(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	// Restore chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// ---------------------------------------------------------
// SQLiteStateRepository
// ---------------------------------------------------------

type SQLiteStateRepository struct {
	db *sql.DB
}

func NewSQLiteStateRepository(db *sql.DB) *SQLiteStateRepository {
	return &SQLiteStateRepository{db: db}
}

func (r *SQLiteStateRepository) Upsert(ctx context.Context, runID string, stateJSON []byte) error {
	query := `
		INSERT INTO game_state (run_id, state_json, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			state_json=excluded.state_json,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query, runID, string(stateJSON), time.Now())
	return err
}

func (r *SQLiteStateRepository) Load(ctx context.Context, runID string) ([]byte, error) {
	query := `SELECT state_json FROM game_state WHERE run_id = ?`
	var stateJSON string
	err := r.db.QueryRowContext(ctx, query, runID).Scan(&stateJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return []byte(stateJSON), nil
}
