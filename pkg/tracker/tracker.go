// Package tracker counts optimizer passes per contest rule.
package tracker

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tracker tracks scoring statistics per rule.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*PassStats
}

// PassStats holds metrics for one rule.
// Fields are accessed atomically.
type PassStats struct {
	Passes       int64 `json:"passes"`
	Improved     int64 `json:"improved"`
	Skipped      int64 `json:"skipped"`
	Insufficient int64 `json:"insufficient"`
	Failures     int64 `json:"failures"`
	// LastDurationUS is the duration of the last completed pass in microseconds.
	LastDurationUS int64 `json:"last_duration_us"`
	MaxDurationUS  int64 `json:"max_duration_us"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*PassStats),
	}
}

// getStats returns the stats object for a rule, creating it if needed.
func (t *Tracker) getStats(rule string) *PassStats {
	t.mu.RLock()
	s, ok := t.stats[rule]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[rule]; ok {
		return s
	}
	s = &PassStats{}
	t.stats[rule] = s
	return s
}

// TrackPass records a completed pass and its duration.
func (t *Tracker) TrackPass(rule string, d time.Duration, improved bool) {
	s := t.getStats(rule)
	atomic.AddInt64(&s.Passes, 1)
	if improved {
		atomic.AddInt64(&s.Improved, 1)
	}
	us := d.Microseconds()
	atomic.StoreInt64(&s.LastDurationUS, us)
	for {
		cur := atomic.LoadInt64(&s.MaxDurationUS)
		if us <= cur || atomic.CompareAndSwapInt64(&s.MaxDurationUS, cur, us) {
			break
		}
	}
}

// TrackSkipped counts a pass dropped because another was running.
func (t *Tracker) TrackSkipped(rule string) {
	atomic.AddInt64(&t.getStats(rule).Skipped, 1)
}

func (t *Tracker) TrackInsufficient(rule string) {
	atomic.AddInt64(&t.getStats(rule).Insufficient, 1)
}

func (t *Tracker) TrackFailure(rule string) {
	atomic.AddInt64(&t.getStats(rule).Failures, 1)
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = make(map[string]*PassStats)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]PassStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]PassStats, len(t.stats))
	for k, v := range t.stats {
		result[k] = PassStats{
			Passes:         atomic.LoadInt64(&v.Passes),
			Improved:       atomic.LoadInt64(&v.Improved),
			Skipped:        atomic.LoadInt64(&v.Skipped),
			Insufficient:   atomic.LoadInt64(&v.Insufficient),
			Failures:       atomic.LoadInt64(&v.Failures),
			LastDurationUS: atomic.LoadInt64(&v.LastDurationUS),
			MaxDurationUS:  atomic.LoadInt64(&v.MaxDurationUS),
		}
	}
	return result
}
