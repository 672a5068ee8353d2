package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"glidecomp/pkg/db"
)

// Store defines the repository interface.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	CheckpointStore
	StateStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Checkpoints ---

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, cp *FlightCheckpoint) error {
	if cp.FlightID == uuid.Nil {
		return errors.New("checkpoint without flight id")
	}
	if cp.SavedAt.IsZero() {
		cp.SavedAt = time.Now()
	}
	data, err := msgpack.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	query := `INSERT OR REPLACE INTO checkpoints (flight_id, data, points, updated_at) VALUES (?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, cp.FlightID.String(), data, len(cp.Track.Points), cp.SavedAt.Unix())
	return err
}

func (s *SQLiteStore) LoadLatestCheckpoint(ctx context.Context) (*FlightCheckpoint, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM checkpoints ORDER BY updated_at DESC LIMIT 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, err
	}

	var cp FlightCheckpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}

func (s *SQLiteStore) DeleteCheckpoint(ctx context.Context, flightID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE flight_id = ?", flightID.String())
	return err
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
