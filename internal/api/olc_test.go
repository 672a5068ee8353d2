package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glidecomp/pkg/core"
	"glidecomp/pkg/olc"
	"glidecomp/pkg/tracker"
)

func TestOLCHandler_Solutions(t *testing.T) {
	h := NewOLCHandler(scoredEngine(t), core.NewFlight(), nil)

	w := httptest.NewRecorder()
	h.HandleSolutions(w, httptest.NewRequest(http.MethodGet, "/api/olc", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var resp SolutionsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, olc.Classic, resp.Rule)
	assert.Equal(t, olc.DefaultHandicap, resp.Handicap)
	assert.Equal(t, "idle", resp.State)
	assert.Equal(t, 10, resp.Track.Points)
	require.Len(t, resp.Solutions, 3)
	assert.True(t, resp.Solutions[olc.Classic].Valid)
	assert.False(t, resp.Solutions[olc.Sprint].Valid)

	// Keys use rule names
	var raw map[string]json.RawMessage
	w = httptest.NewRecorder()
	h.HandleSolutions(w, httptest.NewRequest(http.MethodGet, "/api/olc", http.NoBody))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.JSONEq(t, `"classic"`, string(raw["rule"]))
}

func TestOLCHandler_GeoJSON(t *testing.T) {
	h := NewOLCHandler(scoredEngine(t), core.NewFlight(), nil)

	w := httptest.NewRecorder()
	h.HandleGeoJSON(w, httptest.NewRequest(http.MethodGet, "/api/olc/geojson", http.NoBody))
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	require.NotEmpty(t, fc.Features)
	assert.Equal(t, "classic", fc.Features[0].Properties["rule"])
	assert.Equal(t, "route", fc.Features[0].Properties["kind"])
}

func TestOLCHandler_Track(t *testing.T) {
	h := NewOLCHandler(scoredEngine(t), core.NewFlight(), nil)

	w := httptest.NewRecorder()
	h.HandleTrack(w, httptest.NewRequest(http.MethodGet, "/api/olc/track", http.NoBody))

	f, err := geojson.UnmarshalFeature(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "LineString", f.Geometry.GeoJSONType())
	assert.EqualValues(t, 10, f.Properties["points"])
}

func TestOLCHandler_Reset(t *testing.T) {
	engine := scoredEngine(t)
	tr := tracker.New()
	tr.TrackPass("classic", 0, true)
	h := NewOLCHandler(engine, core.NewFlight(), tr)

	w := httptest.NewRecorder()
	h.HandleReset(w, httptest.NewRequest(http.MethodPost, "/api/olc/reset", http.NoBody))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, engine.Track())
	assert.False(t, engine.Solution(olc.Classic).Valid)
	assert.Empty(t, tr.Snapshot())
}
