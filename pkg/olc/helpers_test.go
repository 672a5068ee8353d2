package olc

import (
	"github.com/paulmach/orb"

	"glidecomp/pkg/geo"
)

var origin = orb.Point{10.0, 47.0}

// lineTrack returns n points heading east from origin, spacing meters apart,
// one every step seconds, at a constant altitude.
func lineTrack(n int, spacing, step, alt float64) []TrackPoint {
	pts := make([]TrackPoint, n)
	for i := range pts {
		pts[i] = TrackPoint{
			Time:     float64(i) * step,
			Location: geo.DestinationPoint(origin, float64(i)*spacing, 90),
			AltLow:   alt,
			AltHigh:  alt,
		}
	}
	return pts
}

// triangleCourse returns six locations: a point 2 km west of A, then A, B,
// C, the midpoint of CA and A again. ABC is a roughly 300 km FAI triangle.
func triangleCourse() []orb.Point {
	a := origin
	b := geo.DestinationPoint(a, 102000, 90)
	c := geo.DestinationPoint(geo.DestinationPoint(a, 51000, 90), 84860, 0)
	mid := orb.Point{(a.Lon() + c.Lon()) / 2, (a.Lat() + c.Lat()) / 2}
	return []orb.Point{geo.DestinationPoint(a, 2000, 270), a, b, c, mid, a}
}

func fixesAt(locs []orb.Point, times, alts []float64, bearing float64) []Fix {
	out := make([]Fix, len(locs))
	for i := range locs {
		out[i] = Fix{Time: times[i], Location: locs[i], Altitude: alts[i], Bearing: bearing}
	}
	return out
}
