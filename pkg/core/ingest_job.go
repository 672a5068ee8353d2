package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/paulmach/orb"

	"glidecomp/pkg/config"
	"glidecomp/pkg/logging"
	"glidecomp/pkg/olc"
	"glidecomp/pkg/sim"
)

// DefaultSampleInterval is the logging gate used when none is configured.
const DefaultSampleInterval = 5 * time.Second

var errBadFix = errors.New("invalid fix")

// IngestionJob feeds sampled fixes into the optimizer and tracks takeoff and landing.
type IngestionJob struct {
	BaseJob
	cfg    config.Provider
	engine *olc.Engine
	flight *Flight
	stages *sim.StageMachine
	logger *slog.Logger
}

// NewIngestionJob creates the job. It runs on every telemetry tick.
func NewIngestionJob(cfg config.Provider, engine *olc.Engine, flight *Flight) *IngestionJob {
	return &IngestionJob{
		BaseJob: NewBaseJob("Ingestion"),
		cfg:     cfg,
		engine:  engine,
		flight:  flight,
		stages:  sim.NewStageMachine(),
		logger:  slog.With("component", "ingest"),
	}
}

func (j *IngestionJob) ShouldFire(t *sim.Telemetry) bool {
	if j.IsRunning() {
		return false
	}
	// Wait until a pending checkpoint restore has been decided
	return !j.flight.awaitingRestore()
}

func (j *IngestionJob) Run(ctx context.Context, t *sim.Telemetry) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	if err := validateFix(t); err != nil {
		logging.Trace(j.logger, "Rejected fix", "error", err)
		return
	}

	wasFlying := j.stages.Flying()
	prev := j.stages.Current()
	stage := j.stages.Update(t)
	flying := sim.IsFlyingStage(stage)
	now := clockOf(t)
	if stage != prev {
		j.logger.Debug("Flight stage", "stage", sim.FormatStage(stage))
	}

	switch {
	case flying && !wasFlying:
		j.onTakeoff(now, stage)
	case !flying && wasFlying:
		j.flight.Land()
		j.logger.Info("Landed", "flight", j.flight.Info().ID, "stage", sim.FormatStage(stage))
	}
	if !flying {
		return
	}

	if j.flight.retreats(now) {
		j.logger.Debug("Rejected fix older than the last sample", "time", now)
		return
	}
	interval := j.cfg.SampleInterval(ctx)
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if !j.flight.sampleDue(now, interval) {
		return
	}

	fix := olc.Fix{
		Time:     j.flight.Elapsed(now),
		Location: orb.Point{t.Longitude, t.Latitude},
		Altitude: t.AltitudeMSL,
		Bearing:  t.Track,
	}
	legStart := j.engine.AddPoint(fix)
	j.flight.recordFix(now, legStart)

	if legStart {
		j.logger.Info("Task restart detected", "time", fix.Time, "alt", fix.Altitude)
		logging.LogEvent(logging.Event{
			Timestamp: now,
			Type:      "leg_start",
			Title:     "New start",
			Summary:   fmt.Sprintf("%.0f m at %s", fix.Altitude, formatElapsed(fix.Time)),
		})
	}
}

func (j *IngestionJob) onTakeoff(now time.Time, stage string) {
	// A checkpoint restored before the first tick already owns the flight
	if stage != sim.StageTakeOff && j.flight.Flying() {
		j.logger.Info("Continuing restored flight", "flight", j.flight.Info().ID)
		return
	}

	j.engine.ResetFlight()
	id := j.flight.Start(now)

	title := "Takeoff"
	if stage != sim.StageTakeOff {
		title = "Airborne start"
	}
	j.logger.Info(title, "flight", id)
	logging.LogEvent(logging.Event{
		Timestamp: now,
		Type:      "takeoff",
		Title:     title,
		Summary:   id.String(),
	})
}

func validateFix(t *sim.Telemetry) error {
	for _, v := range []float64{t.Latitude, t.Longitude, t.AltitudeMSL, t.Track} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", errBadFix)
		}
	}
	if math.Abs(t.Latitude) > 90 || math.Abs(t.Longitude) > 180 {
		return fmt.Errorf("%w: position %.5f,%.5f out of range", errBadFix, t.Latitude, t.Longitude)
	}
	if t.Latitude == 0 && t.Longitude == 0 {
		return fmt.Errorf("%w: no position", errBadFix)
	}
	return nil
}

func formatElapsed(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
