package olc

import (
	"context"

	"glidecomp/pkg/geo"
)

// scanSprint searches start + 3 turnpoints + finish inside the sprint
// window. The finished search runs first; when flying an in-progress
// estimate is added that glides the remaining height away.
func scanSprint(ctx context.Context, in *scanInput) ([]Solution, error) {
	var out []Solution
	sol, ok, err := sprintFinished(ctx, in)
	if err != nil {
		return nil, err
	}
	if ok {
		out = append(out, sol)
	}
	if !in.flying {
		return out, nil
	}
	sol, ok, err = sprintInProgress(ctx, in)
	if err != nil {
		return nil, err
	}
	if ok {
		out = append(out, sol)
	}
	return out, nil
}

func sprintFinished(ctx context.Context, in *scanInput) (Solution, bool, error) {
	t := in.tables
	n := t.Len()
	best := 0
	var b [5]int

	for i5 := n - 1; i5 > 5; i5-- {
		if err := ctx.Err(); err != nil {
			return Solution{}, false, err
		}
		i1 := t.SprintStart(i5)
		if in.low(i5) < in.low(i1) {
			continue
		}
		if in.time(i5)-in.time(i1-1) < in.window {
			continue
		}
		for i3 := i1 + 2; i3 < i5-1; i3++ {
			i2 := t.Bisect(i1, i3)
			i4 := t.Bisect(i3, i5)
			d := t.Dist(i1, i2) + t.Dist(i2, i3) + t.Dist(i3, i4) + t.Dist(i4, i5)
			if d > best {
				best = d
				b = [5]int{i1, i2, i3, i4, i5}
			}
		}
	}
	if best <= 0 {
		return Solution{}, false, nil
	}
	return in.solution(best, in.time(b[4])-in.time(b[0]), true, b[:]...), true, nil
}

func sprintInProgress(ctx context.Context, in *scanInput) (Solution, bool, error) {
	t := in.tables
	i5 := t.Len() - 1
	i1 := in.istart

	dh := in.low(i5) - in.low(i1)
	dt := in.window - (in.time(i5) - in.time(i1))
	if dh < 0 || dt < 0 {
		// Below the start or out of time: nothing left to project.
		return Solution{}, false, nil
	}

	var further int
	var glideTime float64
	if proj, ok := ProjectGlide(in.polar, dh, dt); ok {
		further = int(proj.Distance / DistanceUnit)
		glideTime = proj.Time
	}

	best := 0
	var b [5]int
	for i4 := i5 - 1; i4 > i1+2; i4-- {
		if err := ctx.Err(); err != nil {
			return Solution{}, false, err
		}
		d0 := t.Dist(i4, i5) + further
		for i3 := i1 + 2; i3 < i4; i3++ {
			i2 := t.Bisect(i1, i3)
			d := t.Dist(i1, i2) + t.Dist(i2, i3) + t.Dist(i3, i4) + d0
			if d > best {
				best = d
				b = [5]int{i1, i2, i3, i4, i5}
			}
		}
	}
	if best <= 0 {
		return Solution{}, false, nil
	}

	sol := in.solution(best, in.time(i5)+glideTime-in.time(b[0]), false, b[:]...)
	end := geo.DestinationPoint(t.Point(i5).Location, float64(further)*DistanceUnit, in.bearing)
	sol.Projection = &end
	return sol, true, nil
}
