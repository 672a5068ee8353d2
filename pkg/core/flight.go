package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Flight is the identity and airborne state of the flight being scored.
// It is shared between the ingestion, scoring and persistence jobs.
type Flight struct {
	mu             sync.RWMutex
	id             uuid.UUID
	takeoff        time.Time
	flying         bool
	lastFix        time.Time
	fixes          int
	legStarts      int
	restorePending bool
}

// FlightInfo is a read-only snapshot of a Flight.
type FlightInfo struct {
	ID        uuid.UUID `json:"id"`
	Takeoff   time.Time `json:"takeoff"`
	Flying    bool      `json:"flying"`
	LastFix   time.Time `json:"last_fix"`
	Fixes     int       `json:"fixes"`
	LegStarts int       `json:"leg_starts"`
}

// NewFlight returns an idle flight without identity.
func NewFlight() *Flight {
	return &Flight{}
}

// Info returns a snapshot.
func (f *Flight) Info() FlightInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return FlightInfo{
		ID:        f.id,
		Takeoff:   f.takeoff,
		Flying:    f.flying,
		LastFix:   f.lastFix,
		Fixes:     f.fixes,
		LegStarts: f.legStarts,
	}
}

// Flying reports whether the glider is airborne.
func (f *Flight) Flying() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.flying
}

// Start begins a new flight at takeoff and returns its id.
func (f *Flight) Start(takeoff time.Time) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id = uuid.New()
	f.takeoff = takeoff
	f.flying = true
	f.lastFix = time.Time{}
	f.fixes = 0
	f.legStarts = 0
	return f.id
}

// Resume continues a flight recovered from a checkpoint. lastFix is the
// instant of the newest restored point; older fixes are rejected after it.
func (f *Flight) Resume(id uuid.UUID, takeoff, lastFix time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id = id
	f.takeoff = takeoff
	f.flying = true
	f.lastFix = lastFix
}

// Land marks the end of the airborne part. The id stays until the next takeoff.
func (f *Flight) Land() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flying = false
}

// Elapsed returns seconds since takeoff at t.
func (f *Flight) Elapsed(t time.Time) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return t.Sub(f.takeoff).Seconds()
}

// sampleDue reports whether a fix at t passes the logging gate.
func (f *Flight) sampleDue(t time.Time, interval time.Duration) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastFix.IsZero() || t.Sub(f.lastFix) >= interval
}

// retreats reports whether t is not after the last accepted fix.
func (f *Flight) retreats(t time.Time) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !f.lastFix.IsZero() && !t.After(f.lastFix)
}

func (f *Flight) recordFix(t time.Time, legStart bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFix = t
	f.fixes++
	if legStart {
		f.legStarts++
	}
}

func (f *Flight) setRestorePending(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restorePending = v
}

func (f *Flight) awaitingRestore() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.restorePending
}
