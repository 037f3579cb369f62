package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the schemas
// for the history log and game-state snapshots.
func InitSQLite(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			timestamp DATETIME NOT NULL,
			kind TEXT NOT NULL,
			day INTEGER NOT NULL,
			property_id TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_day ON history(day);`,
		`CREATE INDEX IF NOT EXISTS idx_history_property_id ON history(property_id);`,
		`CREATE TABLE IF NOT EXISTS game_state (
			run_id TEXT PRIMARY KEY,
			state_json TEXT NOT NULL,
			last_updated DATETIME NOT NULL
		);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
