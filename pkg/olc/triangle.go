package olc

import (
	"context"
	"math"
)

const (
	triangleAltitudeSlack = 1000.0 // m the finish may lie below the start
	largeTriangleUnits    = 500000 / DistanceUnit
)

// triangleLegal returns the scored distance of the triangle with legs a, b, c
// and start/finish gap, or 0 when the shape breaks the FAI leg ratios.
func triangleLegal(a, b, c, gap int) int {
	if 5*gap > c {
		return 0
	}
	total := a + b + c - gap
	minLeg := min(a, b, c)
	if total < largeTriangleUnits {
		if minLeg*25 >= total*7 {
			return total
		}
		return 0
	}
	maxLeg := max(a, b, c)
	if minLeg*4 >= total && maxLeg*20 <= 9*total {
		return total
	}
	return 0
}

func (in *scanInput) legal(i1, i2, i3, i4 int) int {
	t := in.tables
	return triangleLegal(t.Dist(i1, i2), t.Dist(i2, i3), t.Dist(i3, i4), t.Dist(i1, i4))
}

// scanTriangle searches FAI triangles start(i2) → i3 → i4 → finish(i5).
// When flying and the height surplus reaches back to the start, a closed
// triangle less the remaining distance is scored as unfinished.
func scanTriangle(ctx context.Context, in *scanInput) ([]Solution, error) {
	t := in.tables
	n := t.Len()
	ld, vld := 0.0, 0.0
	if in.polar != nil {
		ld, vld = in.polar.BestLD(), in.polar.VBestLD()
	}

	best := 0
	var b [4]int // i2, i3, i4, i5
	finished := false
	var toGoBest float64

	for i2 := 1; i2 < n-3; i2++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i5 := n - 1; i5 > i2+2; i5-- {
			dtogo := t.Dist(i2, i5)
			dh := in.high(i5) + triangleAltitudeSlack - in.low(i2)
			if dh < 0 {
				continue
			}

			canFinish := false
			var toGo float64
			if dh > 0 && vld > 0 {
				further := int(math.Round(ld * dh / DistanceUnit))
				if further > dtogo {
					canFinish = true
					toGo = math.Round(float64(dtogo) * DistanceUnit / vld)
				}
			}

			for i4 := i2 + 2; i4 < i5; i4++ {
				i3 := t.Bisect(i2, i4)

				if d := in.legal(i2, i3, i4, i5); d > best {
					best = d
					b = [4]int{i2, i3, i4, i5}
					finished = true
				}
				if canFinish && in.flying {
					d := in.legal(i2, i3, i4, i2) - dtogo
					if d > best && t.Dist(i2, i4) > 5*dtogo {
						best = d
						b = [4]int{i2, i3, i4, i5}
						finished = false
						toGoBest = toGo
					}
				}
			}
		}
	}

	if best <= 0 {
		return nil, nil
	}

	elapsed := in.time(b[3]) - in.time(b[0])
	if finished {
		return []Solution{in.solution(best, elapsed, true, b[:]...)}, nil
	}
	// Still to fly from the last point back to the start.
	sol := in.solution(best, elapsed+toGoBest, false, b[0], b[1], b[2], b[0])
	start := t.Point(b[0]).Location
	sol.Projection = &start
	return []Solution{sol}, nil
}
