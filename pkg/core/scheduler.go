package core

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"glidecomp/pkg/config"
	"glidecomp/pkg/sim"
)

// DefaultTelemetryLoop is the tick used when ticker.telemetry_loop is unset.
const DefaultTelemetryLoop = 100 * time.Millisecond

// TelemetrySink receives every polled fix and the source state (the API).
type TelemetrySink interface {
	Update(t *sim.Telemetry)
	UpdateState(s sim.State)
}

// Scheduler polls the telemetry source on a fixed tick and offers each fix
// to its jobs. Jobs run in their own goroutines and guard against overlap.
type Scheduler struct {
	cfg  config.Provider
	sim  sim.Client
	sink TelemetrySink
	jobs []Job

	lastState sim.State
	readErrs  int
}

// NewScheduler creates a new Scheduler. sink may be nil.
func NewScheduler(cfg config.Provider, simClient sim.Client, sink TelemetrySink) *Scheduler {
	return &Scheduler{
		cfg:  cfg,
		sim:  simClient,
		sink: sink,
	}
}

// AddJob registers a job. Jobs are evaluated in registration order.
func (s *Scheduler) AddJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start runs the loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	interval := time.Duration(s.cfg.AppConfig().Ticker.TelemetryLoop)
	if interval <= 0 {
		interval = DefaultTelemetryLoop
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name()
	}
	slog.Info("Scheduler started", "interval", interval, "jobs", names)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	state := s.sim.GetState()
	if state != s.lastState {
		slog.Info("Telemetry source state changed", "from", s.lastState, "to", state)
		s.lastState = state
	}
	if s.sink != nil {
		s.sink.UpdateState(state)
	}
	if !state.Usable() {
		return
	}

	tel, err := s.sim.GetTelemetry(ctx)
	if err != nil {
		s.readErrs++
		// Log the first failure of a streak, then stay quiet
		if s.readErrs == 1 {
			slog.Warn("Failed to read telemetry", "error", err)
		}
		return
	}
	if s.readErrs > 0 {
		slog.Info("Telemetry recovered", "failed_reads", s.readErrs)
		s.readErrs = 0
	}

	if s.sink != nil {
		s.sink.Update(&tel)
	}

	for _, job := range s.jobs {
		if job.ShouldFire(&tel) {
			go runJob(ctx, job, &tel)
		}
	}
}

// runJob keeps a panicking job from taking the process down.
func runJob(ctx context.Context, job Job, t *sim.Telemetry) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Job panicked", "job", job.Name(), "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	job.Run(ctx, t)
}
