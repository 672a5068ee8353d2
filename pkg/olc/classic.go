package olc

import (
	"context"

	"glidecomp/pkg/geo"
)

// scanClassic searches start + 5 turnpoints + finish with the start pinned
// to the last leg start. The last two legs are weighted 0.8 and 0.6. When
// flying and the finish is the newest point, any height surplus over the
// start is credited as a final glide and the result is unfinished.
func scanClassic(ctx context.Context, in *scanInput) ([]Solution, error) {
	t := in.tables
	n := t.Len()
	i1 := in.istart

	best := 0
	var b [7]int
	finished := false
	furtherBest := 0

	for i6 := i1 + 5; i6 < n; i6++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		i7 := t.BestClassicEnd(i1, i6)
		if i7 <= i6 {
			continue
		}

		further := 0
		if in.flying && i7 == n-1 && in.polar != nil {
			if dh := in.low(i7) - in.low(i1); dh > 0 {
				further = int(in.polar.BestLD() * dh / DistanceUnit)
			}
		}

		for i3 := i1 + 2; i3 < i6-3; i3++ {
			i2 := t.Bisect(i1, i3)
			for i5 := i3 + 2; i5 <= i6; i5++ {
				i4 := t.Bisect(i3, i5)
				d := (5*(t.Dist(i1, i2)+t.Dist(i2, i3)+t.Dist(i3, i4)+t.Dist(i4, i5))+
					4*t.Dist(i5, i6)+
					3*t.Dist(i6, i7))/5 + further
				if d > best {
					best = d
					b = [7]int{i1, i2, i3, i4, i5, i6, i7}
					finished = further == 0
					furtherBest = further
				}
			}
		}
	}

	if best <= 0 {
		return nil, nil
	}

	elapsed := in.time(b[6]) - in.time(b[0])
	if finished {
		return []Solution{in.solution(best, elapsed, true, b[:]...)}, nil
	}
	if vld := in.polar.VBestLD(); vld > 0 {
		elapsed += float64(furtherBest) * DistanceUnit / vld
	}
	sol := in.solution(best, elapsed, false, b[:]...)
	end := geo.DestinationPoint(t.Point(b[6]).Location, float64(furtherBest)*DistanceUnit, in.bearing)
	sol.Projection = &end
	return []Solution{sol}, nil
}
