package olc

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders the valid solutions as GeoJSON: one LineString
// per rule through its turnpoints plus a Point for each projected end.
func FeatureCollection(solutions map[Rule]Solution) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range Rules {
		sol, ok := solutions[r]
		if !ok || !sol.Valid || len(sol.Turnpoints) == 0 {
			continue
		}

		f := geojson.NewFeature(orb.LineString(sol.Turnpoints))
		f.Properties["rule"] = r.String()
		f.Properties["kind"] = "route"
		f.Properties["finished"] = sol.Finished
		f.Properties["distance_m"] = sol.Distance
		f.Properties["time_s"] = sol.Time
		f.Properties["score"] = sol.Score
		fc.Append(f)

		if sol.Projection != nil {
			p := geojson.NewFeature(*sol.Projection)
			p.Properties["rule"] = r.String()
			p.Properties["kind"] = "projection"
			fc.Append(p)
		}
	}
	return fc
}

// TrackFeature renders the decimated track as a LineString feature.
func TrackFeature(points []TrackPoint) *geojson.Feature {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = p.Location
	}
	f := geojson.NewFeature(ls)
	f.Properties["points"] = len(points)
	return f
}
