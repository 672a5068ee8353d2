package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"glidecomp/pkg/olc"
)

// ErrNoCheckpoint is returned when no checkpoint exists.
var ErrNoCheckpoint = errors.New("no checkpoint")

// FlightCheckpoint is the crash-recovery snapshot of one flight.
type FlightCheckpoint struct {
	FlightID uuid.UUID      `msgpack:"flight_id"`
	Takeoff  time.Time      `msgpack:"takeoff"`
	SavedAt  time.Time      `msgpack:"saved_at"`
	Track    olc.Checkpoint `msgpack:"track"`
}

// CheckpointStore persists decimated tracks between restarts.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, cp *FlightCheckpoint) error
	// LoadLatestCheckpoint returns the most recently saved checkpoint or ErrNoCheckpoint.
	LoadLatestCheckpoint(ctx context.Context) (*FlightCheckpoint, error)
	DeleteCheckpoint(ctx context.Context, flightID uuid.UUID) error
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
