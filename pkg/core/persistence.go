package core

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"glidecomp/pkg/olc"
	"glidecomp/pkg/store"
)

// DefaultCheckpointInterval is how often the track is saved while flying.
const DefaultCheckpointInterval = 30 * time.Second

// CheckpointPersistenceJob manages the periodic saving of the decimated track.
type CheckpointPersistenceJob struct {
	st       store.CheckpointStore
	engine   *olc.Engine
	flight   *Flight
	interval time.Duration

	lastFlight    uuid.UUID
	lastSavedData []byte
}

// NewCheckpointPersistenceJob creates a new persistence job.
func NewCheckpointPersistenceJob(st store.CheckpointStore, engine *olc.Engine, flight *Flight, interval time.Duration) *CheckpointPersistenceJob {
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	return &CheckpointPersistenceJob{
		st:       st,
		engine:   engine,
		flight:   flight,
		interval: interval,
	}
}

// Start begins the persistence loop. It returns immediately.
func (j *CheckpointPersistenceJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)

	slog.Info("Persistence: Checkpoint loop started", "interval", j.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.checkAndSave(ctx)
			}
		}
	}()
}

func (j *CheckpointPersistenceJob) checkAndSave(ctx context.Context) {
	info := j.flight.Info()
	if !info.Flying || info.ID == uuid.Nil {
		return
	}

	track := j.engine.Checkpoint()
	if len(track.Points) == 0 {
		return
	}

	// Dirty Check
	data, err := msgpack.Marshal(&track)
	if err != nil {
		slog.Error("Persistence: Failed to serialize track", "error", err)
		return
	}
	if info.ID == j.lastFlight && bytes.Equal(data, j.lastSavedData) {
		return // No change
	}

	cp := &store.FlightCheckpoint{
		FlightID: info.ID,
		Takeoff:  info.Takeoff,
		SavedAt:  time.Now(),
		Track:    track,
	}
	if err := j.st.SaveCheckpoint(ctx, cp); err != nil {
		slog.Error("Persistence: Failed to save checkpoint", "error", err)
		return
	}
	j.lastFlight = info.ID
	j.lastSavedData = data
	slog.Debug("Persistence: Checkpoint saved", "flight", info.ID, "points", len(track.Points), "size", len(data))
}
