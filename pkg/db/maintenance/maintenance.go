// Package maintenance runs the startup housekeeping of the database.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"glidecomp/pkg/db"
	"glidecomp/pkg/store"
)

// StateKeyLastRun records when maintenance last completed.
const StateKeyLastRun = "maintenance_last_run"

// Run executes all maintenance tasks. Failures are logged, not returned,
// so that startup is never blocked by housekeeping.
// It blocks until completion.
func Run(ctx context.Context, s store.StateStore, d *db.DB, checkpointMaxAge time.Duration) error {
	slog.Info("Starting database maintenance...")

	if err := pruneCheckpoints(d, checkpointMaxAge); err != nil {
		slog.Error("Checkpoint pruning failed", "error", err)
	}

	if err := s.SetState(ctx, StateKeyLastRun, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	return nil
}

// pruneCheckpoints removes checkpoints too old to ever be restored.
func pruneCheckpoints(d *db.DB, maxAge time.Duration) error {
	if maxAge <= 0 {
		return nil
	}
	n, err := d.PruneCheckpoints(maxAge)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Pruned stale checkpoints", "count", n)
	}
	if count, points, err := d.CheckpointStats(); err == nil && count > 0 {
		slog.Info("Checkpoints kept for restore", "count", count, "points", points)
	}
	return nil
}
