// Package geo provides spherical-earth helpers on top of orb points.
// All points are orb.Point values, i.e. [lon, lat] in degrees.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// FAIEarthRadius is the earth radius used for contest distances, in meters.
const FAIEarthRadius = 6371000.0

const degToRad = math.Pi / 180.0

// Distance calculates the haversine distance between two points on the FAI sphere, in meters.
func Distance(p1, p2 orb.Point) float64 {
	return orbgeo.DistanceHaversine(p1, p2) * FAIEarthRadius / orb.EarthRadius
}

// DestinationPoint calculates the destination point from a start point, given distance (in meters) and bearing (in degrees).
func DestinationPoint(start orb.Point, distMeters, bearing float64) orb.Point {
	if distMeters <= 0 {
		return start
	}
	// orb works on its own sphere; scale so the arc length is preserved on the FAI sphere.
	return orbgeo.PointAtBearingAndDistance(start, bearing, distMeters*orb.EarthRadius/FAIEarthRadius)
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees [0, 360).
func Bearing(p1, p2 orb.Point) float64 {
	return math.Mod(orbgeo.Bearing(p1, p2)+360.0, 360.0)
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	for angleDeg > 180 {
		angleDeg -= 360
	}
	for angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}

// Trig caches the trigonometric terms of a point so that many
// spherical-law-of-cosines distances can be evaluated cheaply.
type Trig struct {
	sinLat float64
	cosLat float64
	lonRad float64
}

// NewTrig precomputes the terms for p.
func NewTrig(p orb.Point) Trig {
	lat := p.Lat() * degToRad
	return Trig{
		sinLat: math.Sin(lat),
		cosLat: math.Cos(lat),
		lonRad: p.Lon() * degToRad,
	}
}

// CosineDistance returns the great-circle distance in meters between two
// precomputed points using the spherical law of cosines.
func (a Trig) CosineDistance(b Trig) float64 {
	c := a.sinLat*b.sinLat + a.cosLat*b.cosLat*math.Cos(a.lonRad-b.lonRad)
	// Rounding can push identical points slightly past 1.
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return FAIEarthRadius * math.Acos(c)
}
