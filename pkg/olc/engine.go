// Package olc scores a glider flight against the Online Contest rules.
//
// An Engine owns the decimated track of the current flight. Fixes are fed
// with AddPoint from the ingestion goroutine while Run, called from another
// goroutine, snapshots the track and searches it for the best Sprint,
// FAI Triangle or Classic shape.
package olc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultHandicap is the index of a standard-class glider.
	DefaultHandicap = 108
	// DefaultSprintWindow is the sprint task length.
	DefaultSprintWindow = 9000 * time.Second
)

// Settings are the contest parameters of an Engine.
type Settings struct {
	Rule         Rule          `json:"rule"`
	Handicap     int           `json:"handicap"`
	Capacity     int           `json:"capacity"`
	SprintWindow time.Duration `json:"sprint_window"`
}

// DefaultSettings returns Sprint scoring with the standard handicap.
func DefaultSettings() Settings {
	return Settings{
		Rule:         Sprint,
		Handicap:     DefaultHandicap,
		Capacity:     MaxPoints,
		SprintWindow: DefaultSprintWindow,
	}
}

// Validate checks that all parameters are in range.
func (s Settings) Validate() error {
	if !s.Rule.Valid() {
		return fmt.Errorf("%w: rule %d", ErrInvalidSettings, int(s.Rule))
	}
	if s.Handicap <= 0 {
		return fmt.Errorf("%w: handicap %d must be positive", ErrInvalidSettings, s.Handicap)
	}
	if s.Capacity < MinCapacity || s.Capacity > MaxPoints {
		return fmt.Errorf("%w: capacity %d outside [%d,%d]", ErrInvalidSettings, s.Capacity, MinCapacity, MaxPoints)
	}
	if s.SprintWindow <= 0 {
		return fmt.Errorf("%w: sprint window %v", ErrInvalidSettings, s.SprintWindow)
	}
	return nil
}

// State is the scanning state of an Engine.
type State int32

const (
	StateIdle State = iota
	StateScanning
)

func (s State) String() string {
	if s == StateScanning {
		return "scanning"
	}
	return "idle"
}

// Status is the result of one scoring pass.
type Status int

const (
	StatusSolved Status = iota + 1
	StatusUnsolvable
)

func (s Status) String() string {
	switch s {
	case StatusSolved:
		return "solved"
	case StatusUnsolvable:
		return "unsolvable"
	default:
		return "none"
	}
}

// Outcome describes one completed scoring pass.
type Outcome struct {
	Rule     Rule
	Points   int
	Status   Status
	Improved bool
	Duration time.Duration
}

// Engine is the OLC optimizer of one aircraft.
type Engine struct {
	mu       sync.Mutex // guards store and settings
	store    *PointStore
	settings Settings

	polar  GlidePolar
	logger *slog.Logger

	state      atomic.Int32
	generation atomic.Uint64

	solMu     sync.RWMutex
	solutions [3]Solution
}

// NewEngine creates an engine. polar is required for in-progress projections.
func NewEngine(settings Settings, polar GlidePolar, logger *slog.Logger) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if polar == nil {
		return nil, fmt.Errorf("%w: glide polar is required", ErrInvalidSettings)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "olc")
	return &Engine{
		store:    NewPointStore(settings.Capacity, logger),
		settings: settings,
		polar:    polar,
		logger:   logger,
	}, nil
}

// AddPoint records a fix and reports whether it starts a new leg.
// It never blocks on a scoring pass.
func (e *Engine) AddPoint(fix Fix) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Add(fix, e.settings.Rule)
}

// ResetFlight clears the track and all solutions. A pass running
// concurrently discards its results.
func (e *Engine) ResetFlight() {
	e.mu.Lock()
	e.store.Reset()
	e.generation.Add(1)
	e.mu.Unlock()

	e.solMu.Lock()
	e.solutions = [3]Solution{}
	e.solMu.Unlock()
}

// Busy reports whether a scoring pass is running.
func (e *Engine) Busy() bool {
	return State(e.state.Load()) == StateScanning
}

// State returns the current scanning state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run performs one scoring pass for the configured rule. flying enables the
// in-progress estimates. A pass started while another is running returns
// ErrBusy; a track shorter than MinPoints returns ErrInsufficientPoints.
func (e *Engine) Run(ctx context.Context, flying bool) (Outcome, error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateScanning)) {
		return Outcome{}, ErrBusy
	}
	defer e.state.Store(int32(StateIdle))

	start := time.Now()

	e.mu.Lock()
	points := e.store.Points()
	settings := e.settings
	istart := e.store.sprintStartIndex()
	bearing := e.store.Bearing()
	gen := e.generation.Load()
	e.mu.Unlock()

	out := Outcome{Rule: settings.Rule, Points: len(points)}

	tables, err := BuildTables(points, settings.SprintWindow.Seconds())
	if err != nil {
		out.Duration = time.Since(start)
		return out, err
	}

	cands, err := scan(ctx, &scanInput{
		tables:   tables,
		rule:     settings.Rule,
		handicap: settings.Handicap,
		window:   settings.SprintWindow.Seconds(),
		flying:   flying,
		istart:   istart,
		bearing:  bearing,
		polar:    e.polar,
	})
	out.Duration = time.Since(start)
	if err != nil {
		return out, err
	}

	out.Status = StatusUnsolvable
	if len(cands) > 0 {
		out.Status = StatusSolved
	}

	e.solMu.Lock()
	if e.generation.Load() == gen {
		cur := &e.solutions[settings.Rule]
		before := cur.clone()
		for _, c := range cands {
			UpdateSolution(cur, c)
		}
		// Compare end states; candidates may swap the slot back and forth.
		out.Improved = !cur.equal(before)
	} else {
		e.logger.Debug("Flight reset during scoring pass, discarding results")
	}
	e.solMu.Unlock()

	if out.Improved {
		sol := e.Solution(settings.Rule)
		e.logger.Debug("Solution improved",
			"rule", settings.Rule,
			"score", sol.Score,
			"distance_km", sol.Distance/1000,
			"finished", sol.Finished)
	}
	return out, nil
}

// Solution returns a copy of the best result for rule.
func (e *Engine) Solution(rule Rule) Solution {
	if !rule.Valid() {
		return Solution{}
	}
	e.solMu.RLock()
	defer e.solMu.RUnlock()
	return e.solutions[rule].clone()
}

// Solutions returns copies of the best results of every rule.
func (e *Engine) Solutions() map[Rule]Solution {
	e.solMu.RLock()
	defer e.solMu.RUnlock()
	out := make(map[Rule]Solution, len(Rules))
	for _, r := range Rules {
		out[r] = e.solutions[r].clone()
	}
	return out
}

// Settings returns the current contest parameters.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetRule switches the rule used by subsequent passes and leg-start detection.
func (e *Engine) SetRule(r Rule) error {
	if !r.Valid() {
		return fmt.Errorf("%w: rule %d", ErrInvalidSettings, int(r))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Rule = r
	return nil
}

// SetHandicap changes the handicap used by subsequent passes. Scores from
// the old handicap are not comparable, so a change clears all solutions.
func (e *Engine) SetHandicap(h int) error {
	if h <= 0 {
		return fmt.Errorf("%w: handicap %d must be positive", ErrInvalidSettings, h)
	}
	e.mu.Lock()
	changed := e.settings.Handicap != h
	e.settings.Handicap = h
	if changed {
		e.generation.Add(1)
	}
	e.mu.Unlock()

	if changed {
		e.solMu.Lock()
		e.solutions = [3]Solution{}
		e.solMu.Unlock()
	}
	return nil
}

// Track returns a copy of the decimated track.
func (e *Engine) Track() []TrackPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Points()
}

// TrackInfo summarizes the decimator state.
type TrackInfo struct {
	Points          int     `json:"points"`
	Capacity        int     `json:"capacity"`
	ThresholdMeters float64 `json:"threshold_m"`
	SprintStartTime float64 `json:"sprint_start_time"`
}

// Info returns the decimator summary.
func (e *Engine) Info() TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return TrackInfo{
		Points:          e.store.Len(),
		Capacity:        e.store.Capacity(),
		ThresholdMeters: e.store.Threshold(),
		SprintStartTime: e.store.SprintStartTime(),
	}
}

// Checkpoint captures the decimator state for crash recovery.
func (e *Engine) Checkpoint() Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.checkpoint()
}

// Restore replaces the decimator state with cp. Solutions are cleared and
// rebuilt by the next pass.
func (e *Engine) Restore(cp Checkpoint) error {
	e.mu.Lock()
	if err := cp.validate(e.store.Capacity()); err != nil {
		e.mu.Unlock()
		return err
	}
	e.store.restore(cp)
	e.generation.Add(1)
	e.mu.Unlock()

	e.solMu.Lock()
	e.solutions = [3]Solution{}
	e.solMu.Unlock()

	e.logger.Info("Track restored from checkpoint", "points", len(cp.Points))
	return nil
}
