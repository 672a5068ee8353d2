package olc

import "github.com/paulmach/orb"

// TrackPoint is one retained sample of the decimated flight track.
// AltLow and AltHigh span every raw fix merged into it.
type TrackPoint struct {
	Time     float64   `json:"time" msgpack:"t"`
	Location orb.Point `json:"location" msgpack:"p"`
	AltLow   float64   `json:"alt_low" msgpack:"lo"`
	AltHigh  float64   `json:"alt_high" msgpack:"hi"`
}

// Fix is a raw position sample offered to the decimator.
type Fix struct {
	// Time in seconds since the start of the flight.
	Time     float64
	Location orb.Point
	Altitude float64
	// Bearing to the active waypoint (or current track) in degrees.
	Bearing float64
}
