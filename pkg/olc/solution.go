package olc

import (
	"slices"

	"github.com/paulmach/orb"
)

// Solution is the best flight shape found so far for one rule.
type Solution struct {
	Valid    bool    `json:"valid"`
	Finished bool    `json:"finished"`
	Distance float64 `json:"distance_m"`
	Time     float64 `json:"time_s"`
	Score    float64 `json:"score"`
	// Turnpoints are ordered start to finish (at most 7).
	Turnpoints []orb.Point `json:"turnpoints,omitempty"`
	// Projection is the estimated end location of an unfinished result.
	Projection *orb.Point `json:"projection,omitempty"`
}

// Speed returns the average speed in m/s, or 0 when no time has elapsed.
func (s Solution) Speed() float64 {
	if s.Time <= 0 {
		return 0
	}
	return s.Distance / s.Time
}

func (s Solution) clone() Solution {
	c := s
	c.Turnpoints = slices.Clone(s.Turnpoints)
	if s.Projection != nil {
		p := *s.Projection
		c.Projection = &p
	}
	return c
}

func (s Solution) equal(o Solution) bool {
	if s.Valid != o.Valid || s.Finished != o.Finished ||
		s.Distance != o.Distance || s.Time != o.Time || s.Score != o.Score {
		return false
	}
	if !slices.Equal(s.Turnpoints, o.Turnpoints) {
		return false
	}
	if s.Projection == nil || o.Projection == nil {
		return s.Projection == o.Projection
	}
	return *s.Projection == *o.Projection
}

// UpdateSolution replaces cur with cand when cur is empty, cand scores
// higher, or cand closes out an unfinished result. Candidates without a
// positive score never replace anything. It reports whether cur changed.
func UpdateSolution(cur *Solution, cand Solution) bool {
	if cand.Score <= 0 {
		return false
	}
	if cur.Valid && cand.Score <= cur.Score && (cur.Finished || !cand.Finished) {
		return false
	}
	*cur = cand.clone()
	cur.Valid = true
	return true
}
