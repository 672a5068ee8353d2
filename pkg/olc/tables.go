package olc

import (
	"fmt"
	"math"

	"glidecomp/pkg/geo"
)

const (
	// DistanceUnit is the resolution of the distance table in meters.
	DistanceUnit = 100.0
	// MinPoints is the shortest track a scoring pass accepts.
	MinPoints = 5
	// classicAltitudeSlack is how far (in meters) a classic finish may lie below the start.
	classicAltitudeSlack = 1000.0
)

// Tables holds the geometry derived from one frozen track snapshot.
// Distances are in DistanceUnit steps.
type Tables struct {
	points []TrackPoint

	dist        *TriMatrix[int32]
	bisect      *TriMatrix[int16]
	bestEnd     *TriMatrix[int16]
	sprintStart []int
}

// BuildTables computes the distance matrix and lookup tables for points.
// sprintWindow is in seconds.
func BuildTables(points []TrackPoint, sprintWindow float64) (*Tables, error) {
	n := len(points)
	if n < MinPoints {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPoints, n, MinPoints)
	}
	if n > math.MaxInt16 {
		return nil, fmt.Errorf("olc: snapshot of %d points exceeds table range", n)
	}

	t := &Tables{
		points:      points,
		dist:        NewTriMatrix[int32](n),
		bisect:      NewTriMatrix[int16](n),
		bestEnd:     NewTriMatrix[int16](n),
		sprintStart: make([]int, n),
	}
	t.initDistances()
	t.initBisect()
	t.initSprintStart(sprintWindow)
	t.initBestEnd()
	return t, nil
}

// Len returns the number of points in the snapshot.
func (t *Tables) Len() int { return len(t.points) }

// Point returns the i-th snapshot point.
func (t *Tables) Point(i int) TrackPoint { return t.points[i] }

// Dist returns the distance between points i and j in DistanceUnit steps.
func (t *Tables) Dist(i, j int) int { return int(t.dist.At(i, j)) }

// Bisect returns the k in (i, j) maximizing Dist(i,k)+Dist(k,j), or j when there is none.
func (t *Tables) Bisect(i, j int) int { return int(t.bisect.At(i, j)) }

// SprintStart returns the sprint start index for end point j.
func (t *Tables) SprintStart(j int) int { return t.sprintStart[j] }

// BestClassicEnd returns the finish k > j farthest from j that is reachable
// from start i, or i when none qualifies. Requires i <= j.
func (t *Tables) BestClassicEnd(i, j int) int {
	if i > j {
		panic(fmt.Sprintf("olc: BestClassicEnd(%d,%d) requires i <= j", i, j))
	}
	return int(t.bestEnd.At(i, j))
}

func (t *Tables) initDistances() {
	n := len(t.points)
	trig := make([]geo.Trig, n)
	for i, p := range t.points {
		trig[i] = geo.NewTrig(p.Location)
	}
	for i := 0; i < n; i++ {
		t.dist.Set(i, i, 0)
		for j := i + 1; j < n; j++ {
			m := trig[i].CosineDistance(trig[j])
			t.dist.Set(i, j, int32(math.Round(m/DistanceUnit)))
		}
	}
}

func (t *Tables) initBisect() {
	n := len(t.points)
	for i := 0; i < n; i++ {
		t.bisect.Set(i, i, int16(i))
		for j := i + 1; j < n; j++ {
			best, bestK := 0, j
			for k := i + 1; k < j; k++ {
				if d := t.Dist(i, k) + t.Dist(k, j); d > best {
					best, bestK = d, k
				}
			}
			t.bisect.Set(i, j, int16(bestK))
		}
	}
}

func (t *Tables) initSprintStart(window float64) {
	for i := range t.points {
		end := t.points[i]
		best := i
		altMin := end.AltLow
		for j := 1; j < i; j++ {
			p := t.points[j]
			// Latest of the lowest starts still inside the window.
			if p.AltLow <= altMin && end.Time-p.Time < window {
				best = j
				altMin = p.AltLow
			}
		}
		t.sprintStart[i] = max(1, best)
	}
}

func (t *Tables) initBestEnd() {
	n := len(t.points)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			best, bestK := 0, i
			for k := j + 1; k < n; k++ {
				if t.points[k].AltHigh-t.points[i].AltLow < -classicAltitudeSlack {
					continue
				}
				if d := t.Dist(j, k); d >= best {
					best, bestK = d, k
				}
			}
			t.bestEnd.Set(i, j, int16(bestK))
		}
	}
}
