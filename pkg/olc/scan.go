package olc

import (
	"context"

	"github.com/paulmach/orb"
)

// scanInput is everything a rule optimizer reads during one pass.
type scanInput struct {
	tables   *Tables
	rule     Rule
	handicap int
	window   float64 // sprint window, s
	flying   bool
	istart   int // first point at or after the last leg start
	bearing  float64
	polar    GlidePolar
}

func (in *scanInput) solution(units int, elapsed float64, finished bool, idx ...int) Solution {
	tps := make([]orb.Point, len(idx))
	for k, i := range idx {
		tps[k] = in.tables.Point(i).Location
	}
	return Solution{
		Valid:      true,
		Finished:   finished,
		Distance:   float64(units) * DistanceUnit,
		Time:       elapsed,
		Score:      score(units, in.rule, in.handicap),
		Turnpoints: tps,
	}
}

func (in *scanInput) low(i int) float64  { return in.tables.Point(i).AltLow }
func (in *scanInput) high(i int) float64 { return in.tables.Point(i).AltHigh }
func (in *scanInput) time(i int) float64 { return in.tables.Point(i).Time }

// scan runs the optimizer for in.rule and returns its candidates, best last.
func scan(ctx context.Context, in *scanInput) ([]Solution, error) {
	switch in.rule {
	case Sprint:
		return scanSprint(ctx, in)
	case Triangle:
		return scanTriangle(ctx, in)
	case Classic:
		return scanClassic(ctx, in)
	}
	return nil, ErrInvalidSettings
}
