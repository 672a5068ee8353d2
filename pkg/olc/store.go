package olc

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/paulmach/orb"

	"glidecomp/pkg/geo"
	"glidecomp/pkg/logging"
)

const (
	// MaxPoints bounds the decimated track and with it the cost of a scoring pass.
	MaxPoints = 300
	// MinCapacity is the smallest buffer the decimator can thin sensibly.
	MinCapacity = 20

	initialThreshold  = 500.0    // m
	initialAltMinimum = 100000.0 // m
	legStartMargin    = 1000.0   // m below the running minimum for triangle/classic
	thinFloor         = 5
	thinTargetRatio   = 0.8
)

// PointStore is the fixed-capacity decimated track of the current flight.
// It is not safe for concurrent use; Engine serializes access.
type PointStore struct {
	points    []TrackPoint
	capacity  int
	threshold float64

	altMinimum  float64
	sprintStart float64

	last    orb.Point
	alt1    float64 // previous raw altitude
	alt2    float64 // raw altitude before that
	rawSeen int
	bearing float64

	logger *slog.Logger
}

// NewPointStore returns an empty store holding at most capacity points.
func NewPointStore(capacity int, logger *slog.Logger) *PointStore {
	capacity = min(max(capacity, MinCapacity), MaxPoints)
	if logger == nil {
		logger = slog.Default()
	}
	s := &PointStore{
		capacity: capacity,
		points:   make([]TrackPoint, 0, capacity),
		logger:   logger,
	}
	s.Reset()
	return s
}

// Reset clears the track and restores the initial thresholds.
func (s *PointStore) Reset() {
	s.points = s.points[:0]
	s.threshold = initialThreshold
	s.altMinimum = initialAltMinimum
	s.sprintStart = 0
	s.last = orb.Point{}
	s.alt1, s.alt2 = 0, 0
	s.rawSeen = 0
	s.bearing = 0
}

// Len returns the number of retained points.
func (s *PointStore) Len() int { return len(s.points) }

// Capacity returns the maximum number of retained points.
func (s *PointStore) Capacity() int { return s.capacity }

// Threshold returns the current admission distance in meters.
func (s *PointStore) Threshold() float64 { return s.threshold }

// SprintStartTime returns the time of the most recent leg start.
func (s *PointStore) SprintStartTime() float64 { return s.sprintStart }

// Bearing returns the bearing of the most recent fix.
func (s *PointStore) Bearing() float64 { return s.bearing }

// Points returns a copy of the retained track.
func (s *PointStore) Points() []TrackPoint {
	return slices.Clone(s.points)
}

// Add offers a raw fix to the track and reports whether it was flagged as a
// new leg start. Every fix is accepted: it becomes a new point or widens the
// altitude range of the last one.
func (s *PointStore) Add(fix Fix, rule Rule) bool {
	s.bearing = fix.Bearing

	legStart := false
	if s.rawSeen >= 2 && fix.Altitude > s.alt1 && s.alt2 > s.alt1 {
		limit := s.altMinimum
		if rule != Sprint {
			limit -= legStartMargin
		}
		legStart = s.alt1 < limit
	}
	if legStart {
		s.altMinimum = min(s.altMinimum, s.alt1)
		s.sprintStart = fix.Time
	}
	s.alt2, s.alt1 = s.alt1, fix.Altitude
	s.rawSeen++

	if len(s.points) == 0 || legStart || geo.Distance(fix.Location, s.last) > s.threshold {
		s.append(fix)
		return legStart
	}

	last := &s.points[len(s.points)-1]
	switch {
	case fix.Altitude < last.AltLow:
		last.Time = fix.Time
		last.AltLow = fix.Altitude
	case fix.Altitude > last.AltHigh:
		last.Time = fix.Time
		last.AltHigh = fix.Altitude
	}
	logging.Trace(s.logger, "Fix merged", "time", fix.Time, "alt", fix.Altitude)
	return legStart
}

func (s *PointStore) append(fix Fix) {
	s.last = fix.Location
	s.points = append(s.points, TrackPoint{
		Time:     fix.Time,
		Location: fix.Location,
		AltLow:   fix.Altitude,
		AltHigh:  fix.Altitude,
	})
	if len(s.points) >= s.capacity {
		s.thin()
	}
}

// sprintStartIndex returns the first point at or after the last leg start,
// ignoring the final MinPoints points, or 0.
func (s *PointStore) sprintStartIndex() int {
	for i := 0; i < len(s.points)-MinPoints; i++ {
		if s.points[i].Time >= s.sprintStart {
			return i
		}
	}
	return 0
}

func (s *PointStore) thin() {
	target := int(float64(s.capacity) * thinTargetRatio)
	floor := thinFloor
	if idx := s.sprintStartIndex(); idx > floor && idx <= target-2 {
		floor = idx
	}

	before := len(s.points)
	n, threshold := Thin(s.points, s.threshold, floor, target)
	s.threshold = threshold
	if n >= s.capacity {
		s.logger.Warn("Track thinning could not free space, dropping newest points",
			"points", n, "capacity", s.capacity, "floor", floor)
		n = s.capacity - 1
	}
	s.points = s.points[:n]
	s.logger.Debug("Track thinned", "before", before, "after", n, "threshold_m", threshold)
}

// Thin removes points closer than threshold to their retained neighbour
// until at most target remain. Points up to and including floor and the
// final point are never removed. The altitude range of each removed point
// is folded into the next survivor. Passes alternate scan direction and the
// threshold doubles after each pass that falls short. It returns the new
// length (points is compacted in place) and the final threshold.
func Thin(points []TrackPoint, threshold float64, floor, target int) (int, float64) {
	n := len(points)
	if floor < 0 {
		floor = 0
	}
	if floor >= n-2 {
		// Nothing between the floor and the final point.
		return n, threshold
	}
	removed := make([]bool, n)

	for pass := 0; n > target && pass < maxThinPasses; pass++ {
		clear(removed[:n])
		if pass%2 == 0 {
			kept := n - 1
			for i := n - 2; i > floor; i-- {
				if geo.Distance(points[i].Location, points[kept].Location) < threshold {
					removed[i] = true
				} else {
					kept = i
				}
			}
		} else {
			kept := floor
			for i := floor + 1; i < n-1; i++ {
				if geo.Distance(points[i].Location, points[kept].Location) < threshold {
					removed[i] = true
				} else {
					kept = i
				}
			}
		}

		n = compact(points[:n], removed[:n])
		if n > target {
			threshold *= 2
		}
	}
	return n, threshold
}

const maxThinPasses = 16

func compact(points []TrackPoint, removed []bool) int {
	w := 0
	pending := false
	var low, high float64
	for r := range points {
		p := points[r]
		if removed[r] {
			if !pending {
				low, high = p.AltLow, p.AltHigh
				pending = true
			} else {
				low, high = min(low, p.AltLow), max(high, p.AltHigh)
			}
			continue
		}
		if pending {
			p.AltLow = min(p.AltLow, low)
			p.AltHigh = max(p.AltHigh, high)
			pending = false
		}
		points[w] = p
		w++
	}
	return w
}

// Checkpoint is a serializable copy of the decimator state.
type Checkpoint struct {
	Points      []TrackPoint `msgpack:"points"`
	Threshold   float64      `msgpack:"threshold"`
	AltMinimum  float64      `msgpack:"alt_min"`
	SprintStart float64      `msgpack:"sprint_start"`
	Last        orb.Point    `msgpack:"last"`
	Alt1        float64      `msgpack:"alt1"`
	Alt2        float64      `msgpack:"alt2"`
	RawSeen     int          `msgpack:"raw_seen"`
	Bearing     float64      `msgpack:"bearing"`
}

func (s *PointStore) checkpoint() Checkpoint {
	return Checkpoint{
		Points:      s.Points(),
		Threshold:   s.threshold,
		AltMinimum:  s.altMinimum,
		SprintStart: s.sprintStart,
		Last:        s.last,
		Alt1:        s.alt1,
		Alt2:        s.alt2,
		RawSeen:     s.rawSeen,
		Bearing:     s.bearing,
	}
}

func (cp *Checkpoint) validate(capacity int) error {
	if len(cp.Points) >= capacity {
		return fmt.Errorf("%w: %d points exceed capacity %d", ErrInvalidCheckpoint, len(cp.Points), capacity)
	}
	if cp.Threshold <= 0 {
		return fmt.Errorf("%w: threshold %g", ErrInvalidCheckpoint, cp.Threshold)
	}
	for i := 1; i < len(cp.Points); i++ {
		if cp.Points[i].Time <= cp.Points[i-1].Time {
			return fmt.Errorf("%w: point %d out of order", ErrInvalidCheckpoint, i)
		}
	}
	return nil
}

func (s *PointStore) restore(cp Checkpoint) {
	s.points = append(s.points[:0], cp.Points...)
	s.threshold = cp.Threshold
	s.altMinimum = cp.AltMinimum
	s.sprintStart = cp.SprintStart
	s.last = cp.Last
	s.alt1, s.alt2 = cp.Alt1, cp.Alt2
	s.rawSeen = cp.RawSeen
	s.bearing = cp.Bearing
}
