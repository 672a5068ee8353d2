// Package probe runs the startup checks of the server.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single check.
const DefaultTimeout = 5 * time.Second

// CheckFunc returns nil when the check passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check.
type Probe struct {
	Name  string
	Check CheckFunc
	// Critical failures abort startup.
	Critical bool
}

// Result is the outcome of one probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes the probes concurrently, each under DefaultTimeout, and
// returns their results in input order.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
			defer cancel()

			start := time.Now()
			err := p.Check(checkCtx)
			results[i] = Result{Probe: p, Error: err, Duration: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// AnalyzeResults logs a summary line per probe and joins the errors of
// the critical ones.
func AnalyzeResults(results []Result) error {
	var critical []error

	slog.Info("Startup Checks Summary", "probes", len(results))

	for _, r := range results {
		if r.Error == nil {
			slog.Info(fmt.Sprintf("[PASS] %-16s (%v)", r.Probe.Name, r.Duration.Round(time.Millisecond)))
			continue
		}
		slog.Error(fmt.Sprintf("[FAIL] %-16s (%v)", r.Probe.Name, r.Duration.Round(time.Millisecond)), "error", r.Error, "critical", r.Probe.Critical)
		if r.Probe.Critical {
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		}
	}

	return errors.Join(critical...)
}
