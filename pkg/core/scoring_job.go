package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"glidecomp/pkg/config"
	"glidecomp/pkg/logging"
	"glidecomp/pkg/olc"
	"glidecomp/pkg/sim"
	"glidecomp/pkg/tracker"
)

// DefaultScoreInterval is used when no score interval is configured.
const DefaultScoreInterval = 10 * time.Second

// SolutionPublisher receives the solutions after a pass improved one of them.
type SolutionPublisher interface {
	PublishSolutions(solutions map[olc.Rule]olc.Solution)
}

// ScoringJob runs an optimizer pass at a fixed interval.
type ScoringJob struct {
	*TimeJob
	cfg       config.Provider
	engine    *olc.Engine
	flight    *Flight
	tracker   *tracker.Tracker
	publisher SolutionPublisher
	logger    *slog.Logger
}

// NewScoringJob creates the job. publisher may be nil.
func NewScoringJob(ctx context.Context, cfg config.Provider, engine *olc.Engine, flight *Flight, tr *tracker.Tracker, publisher SolutionPublisher) *ScoringJob {
	interval := cfg.ScoreInterval(ctx)
	if interval <= 0 {
		interval = DefaultScoreInterval
	}
	j := &ScoringJob{
		cfg:       cfg,
		engine:    engine,
		flight:    flight,
		tracker:   tr,
		publisher: publisher,
		logger:    slog.With("component", "scoring"),
	}
	j.TimeJob = NewTimeJob("Scoring", interval, func(ctx context.Context, _ sim.Telemetry) {
		j.Score(ctx)
	})
	return j
}

// Score runs one pass with the current rule and handicap.
func (j *ScoringJob) Score(ctx context.Context) {
	j.syncSettings(ctx)
	rule := j.engine.Settings().Rule.String()

	out, err := j.engine.Run(ctx, j.flight.Flying())
	switch {
	case errors.Is(err, olc.ErrBusy):
		j.tracker.TrackSkipped(rule)
		j.logger.Debug("Scoring pass skipped, previous pass still running")
	case errors.Is(err, olc.ErrInsufficientPoints):
		j.tracker.TrackInsufficient(rule)
		logging.Trace(j.logger, "Not enough points to score", "points", out.Points)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return
	case err != nil:
		j.tracker.TrackFailure(rule)
		j.logger.Error("Scoring pass failed", "error", err)
	default:
		j.tracker.TrackPass(rule, out.Duration, out.Improved)
		logging.Trace(j.logger, "Scoring pass done",
			"rule", out.Rule, "points", out.Points, "status", out.Status, "duration", out.Duration)
		if out.Improved && j.publisher != nil {
			j.publisher.PublishSolutions(j.engine.Solutions())
		}
	}
}

// syncSettings applies runtime rule and handicap changes before a pass.
func (j *ScoringJob) syncSettings(ctx context.Context) {
	current := j.engine.Settings()

	if name := j.cfg.OLCRule(ctx); name != "" {
		rule, err := olc.ParseRule(name)
		if err != nil {
			j.logger.Warn("Ignoring unknown contest rule", "rule", name)
		} else if rule != current.Rule {
			if err := j.engine.SetRule(rule); err == nil {
				j.logger.Info("Contest rule changed", "rule", rule)
			}
		}
	}

	if h := j.cfg.Handicap(ctx); h != current.Handicap {
		if err := j.engine.SetHandicap(h); err != nil {
			j.logger.Warn("Ignoring invalid handicap", "handicap", h, "error", err)
		} else {
			j.logger.Info("Handicap changed", "handicap", h)
		}
	}
}
