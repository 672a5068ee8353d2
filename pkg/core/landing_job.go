package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"glidecomp/pkg/logging"
	"glidecomp/pkg/olc"
	"glidecomp/pkg/sim"
	"glidecomp/pkg/store"
)

// landedSpeed is the ground speed (m/s) below which the landing roll is over.
const landedSpeed = 5.0

// Debriefer closes a flight after landing.
type Debriefer interface {
	Debrief(ctx context.Context, tel *sim.Telemetry) bool
}

// LandingJob detects when the glider has landed and triggers a debrief.
type LandingJob struct {
	BaseJob
	debriefer   Debriefer
	wasAirborne bool
	cooldown    time.Time
}

// NewLandingJob creates a new LandingJob.
func NewLandingJob(debriefer Debriefer) *LandingJob {
	return &LandingJob{
		BaseJob:   NewBaseJob("LandingJob"),
		debriefer: debriefer,
	}
}

func (j *LandingJob) ShouldFire(t *sim.Telemetry) bool {
	if j.IsRunning() {
		return false
	}
	// If recently fired, wait
	if clockOf(t).Before(j.cooldown) {
		return false
	}

	if !t.IsOnGround {
		if !j.wasAirborne {
			slog.Debug("LandingJob: Glider is airborne")
			j.wasAirborne = true
		}
		return false
	}

	// On ground without a flight: parked or launching
	if !j.wasAirborne {
		return false
	}

	// Still rolling out
	if t.GroundSpeed > landedSpeed {
		return false
	}

	return true
}

func (j *LandingJob) Run(ctx context.Context, t *sim.Telemetry) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	slog.Info("LandingJob: Landing detected, closing flight")

	if j.debriefer.Debrief(ctx, t) {
		j.wasAirborne = false
		j.cooldown = clockOf(t).Add(time.Minute) // Prevent double trigger
	}
	// Otherwise a scoring pass was running; retry on the next tick
}

// FlightDebriefer runs the final pass of a landed flight, logs the result
// and removes its checkpoint.
type FlightDebriefer struct {
	engine *olc.Engine
	flight *Flight
	st     store.CheckpointStore
}

// NewFlightDebriefer creates a debriefer. st may be nil.
func NewFlightDebriefer(engine *olc.Engine, flight *Flight, st store.CheckpointStore) *FlightDebriefer {
	return &FlightDebriefer{engine: engine, flight: flight, st: st}
}

// Debrief returns false when the final pass has to be retried.
func (d *FlightDebriefer) Debrief(ctx context.Context, tel *sim.Telemetry) bool {
	out, err := d.engine.Run(ctx, false)
	if errors.Is(err, olc.ErrBusy) {
		return false
	}
	if err != nil && !errors.Is(err, olc.ErrInsufficientPoints) {
		slog.Warn("Final scoring pass failed", "error", err)
	}

	info := d.flight.Info()
	sol := d.engine.Solution(out.Rule)
	summary := "no valid result"
	if sol.Valid {
		summary = fmt.Sprintf("%s %.1f km, %.2f pts, %.1f km/h",
			out.Rule, sol.Distance/1000, sol.Score, sol.Speed()*3.6)
	}
	slog.Info("Flight closed", "flight", info.ID, "fixes", info.Fixes, "result", summary)
	logging.LogEvent(logging.Event{
		Timestamp: clockOf(tel),
		Type:      "landing",
		Title:     "Landed",
		Summary:   summary,
	})

	if d.st != nil && info.ID != uuid.Nil {
		if err := d.st.DeleteCheckpoint(ctx, info.ID); err != nil {
			slog.Warn("Failed to remove checkpoint", "flight", info.ID, "error", err)
		}
	}
	return true
}
