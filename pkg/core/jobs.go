package core

import (
	"context"
	"sync/atomic"
	"time"

	"glidecomp/pkg/sim"
)

// Job defines a scheduled task.
type Job interface {
	Name() string
	ShouldFire(t *sim.Telemetry) bool
	Run(ctx context.Context, t *sim.Telemetry)
}

// BaseJob guards a job against overlapping runs.
type BaseJob struct {
	name    string
	running atomic.Bool
}

func NewBaseJob(name string) BaseJob {
	return BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock marks the job running. It fails if a run is already in progress.
func (b *BaseJob) TryLock() bool {
	return b.running.CompareAndSwap(false, true)
}

func (b *BaseJob) Unlock() {
	b.running.Store(false)
}

// IsRunning reports whether Run is in progress.
func (b *BaseJob) IsRunning() bool {
	return b.running.Load()
}

// clockOf returns the fix time of t, falling back to the wall clock.
// Using fix time keeps intervals correct when the source runs faster than real time.
func clockOf(t *sim.Telemetry) time.Time {
	if t == nil || t.Time.IsZero() {
		return time.Now()
	}
	return t.Time
}

// TimeJob fires when time elapsed exceeds threshold.
type TimeJob struct {
	BaseJob
	lastTime  atomic.Int64 // unix nanos of the last run
	threshold time.Duration
	action    func(context.Context, sim.Telemetry)
	firstRun  atomic.Bool
}

func NewTimeJob(name string, threshold time.Duration, action func(context.Context, sim.Telemetry)) *TimeJob {
	j := &TimeJob{
		BaseJob:   NewBaseJob(name),
		threshold: threshold,
		action:    action,
	}
	j.firstRun.Store(true)
	return j
}

func (j *TimeJob) ShouldFire(t *sim.Telemetry) bool {
	if j.IsRunning() {
		return false
	}

	if j.firstRun.Load() {
		return true
	}

	elapsed := clockOf(t).Sub(time.Unix(0, j.lastTime.Load()))
	// A clock that jumped backwards (new flight in a replay) fires immediately
	return elapsed >= j.threshold || elapsed < 0
}

func (j *TimeJob) Run(ctx context.Context, t *sim.Telemetry) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.lastTime.Store(clockOf(t).UnixNano())
	j.firstRun.Store(false)

	j.action(ctx, *t)
}
