package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Register driver
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// pragmas are applied on open. WAL keeps checkpoint writes from blocking
// API reads.
var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA busy_timeout=30000;",
	"PRAGMA synchronous=NORMAL;",
}

// Init opens the database at path (":memory:" for a private in-memory
// database) and runs migrations.
func Init(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// One connection: writes never race and :memory: stays a single database
	conn.SetMaxOpenConns(1)

	d := &DB{conn}
	if err := d.setup(); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) setup() error {
	if err := d.Ping(); err != nil {
		return fmt.Errorf("failed to ping db: %w", err)
	}
	for _, p := range pragmas {
		if _, err := d.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	if err := d.migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// CheckpointStats returns the number of stored checkpoints and their total points.
func (d *DB) CheckpointStats() (count, points int, err error) {
	err = d.QueryRow("SELECT count(*), COALESCE(SUM(points), 0) FROM checkpoints").Scan(&count, &points)
	return count, points, err
}

// PruneCheckpoints removes track checkpoints not updated within olderThan.
// It returns the number of rows removed.
func (d *DB) PruneCheckpoints(olderThan time.Duration) (int64, error) {
	deadline := time.Now().Add(-olderThan).Unix()
	res, err := d.Exec("DELETE FROM checkpoints WHERE updated_at < ?", deadline)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS persistent_state (
			key TEXT PRIMARY KEY,
			value TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			flight_id TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			points INTEGER,
			updated_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_checkpoints_updated ON checkpoints(updated_at);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}

	// Migration: Add points column if missing (early schema stored only the blob)
	var colCount int
	err := d.QueryRow("SELECT count(*) FROM pragma_table_info('checkpoints') WHERE name='points'").Scan(&colCount)
	if err == nil && colCount == 0 {
		if _, err := d.Exec("ALTER TABLE checkpoints ADD COLUMN points INTEGER"); err != nil {
			return fmt.Errorf("failed to add points column: %w", err)
		}
	}

	return nil
}
