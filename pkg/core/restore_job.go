package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"glidecomp/pkg/logging"
	"glidecomp/pkg/olc"
	"glidecomp/pkg/sim"
	"glidecomp/pkg/store"
)

// CheckpointRestorationJob restores the track of an interrupted flight on startup.
// It fires once, on the first active telemetry tick.
type CheckpointRestorationJob struct {
	BaseJob
	st     store.CheckpointStore
	engine *olc.Engine
	flight *Flight
	maxAge time.Duration
	done   int32 // 1 if attempted
}

// NewCheckpointRestorationJob creates the job. Ingestion waits until it has run.
func NewCheckpointRestorationJob(st store.CheckpointStore, engine *olc.Engine, flight *Flight, maxAge time.Duration) *CheckpointRestorationJob {
	flight.setRestorePending(true)
	return &CheckpointRestorationJob{
		BaseJob: NewBaseJob("CheckpointRestoration"),
		st:      st,
		engine:  engine,
		flight:  flight,
		maxAge:  maxAge,
	}
}

func (j *CheckpointRestorationJob) ShouldFire(t *sim.Telemetry) bool {
	if atomic.LoadInt32(&j.done) == 1 {
		return false
	}
	return !j.IsRunning()
}

func (j *CheckpointRestorationJob) Run(ctx context.Context, t *sim.Telemetry) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	restored, err := j.tryRestore(ctx, t)
	if err != nil {
		slog.Warn("Checkpoint restore failed", "error", err)
	} else if restored {
		info := j.flight.Info()
		logging.LogEvent(logging.Event{
			Type:    "restore",
			Title:   "Flight restored",
			Summary: fmt.Sprintf("%s, %d points", info.ID, len(j.engine.Track())),
		})
	}

	atomic.StoreInt32(&j.done, 1)
	j.flight.setRestorePending(false)
}

// tryRestore restores the latest checkpoint when the glider is still
// airborne and the checkpoint is fresh.
func (j *CheckpointRestorationJob) tryRestore(ctx context.Context, t *sim.Telemetry) (bool, error) {
	if t.IsOnGround {
		slog.Debug("On ground at startup, not restoring")
		return false, nil
	}

	cp, err := j.st.LoadLatestCheckpoint(ctx)
	if errors.Is(err, store.ErrNoCheckpoint) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	age := time.Since(cp.SavedAt)
	if j.maxAge > 0 && age > j.maxAge {
		slog.Info("Discarding stale checkpoint", "flight", cp.FlightID, "age", age.Round(time.Second))
		return false, j.st.DeleteCheckpoint(ctx, cp.FlightID)
	}

	if err := j.engine.Restore(cp.Track); err != nil {
		// Unusable data would fail again on every start
		_ = j.st.DeleteCheckpoint(ctx, cp.FlightID)
		return false, fmt.Errorf("restore flight %s: %w", cp.FlightID, err)
	}
	lastFix := cp.Takeoff
	if n := len(cp.Track.Points); n > 0 {
		lastFix = cp.Takeoff.Add(time.Duration(cp.Track.Points[n-1].Time * float64(time.Second)))
	}
	j.flight.Resume(cp.FlightID, cp.Takeoff, lastFix)
	slog.Info("Restored flight from checkpoint", "flight", cp.FlightID, "points", len(cp.Track.Points), "age", age.Round(time.Second))
	return true, nil
}
