package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"glidecomp/pkg/core"
	"glidecomp/pkg/olc"
	"glidecomp/pkg/tracker"
)

// OLCHandler serves the optimizer results and the decimated track.
type OLCHandler struct {
	engine  *olc.Engine
	flight  *core.Flight
	tracker *tracker.Tracker
}

// NewOLCHandler creates the handler. tr may be nil.
func NewOLCHandler(engine *olc.Engine, flight *core.Flight, tr *tracker.Tracker) *OLCHandler {
	return &OLCHandler{engine: engine, flight: flight, tracker: tr}
}

// SolutionsResponse is the body of GET /api/olc.
type SolutionsResponse struct {
	Rule      olc.Rule                  `json:"rule"`
	Handicap  int                       `json:"handicap"`
	State     string                    `json:"state"`
	Track     olc.TrackInfo             `json:"track"`
	Flight    core.FlightInfo           `json:"flight"`
	Solutions map[olc.Rule]olc.Solution `json:"solutions"`
}

func (h *OLCHandler) snapshot() SolutionsResponse {
	s := h.engine.Settings()
	return SolutionsResponse{
		Rule:      s.Rule,
		Handicap:  s.Handicap,
		State:     h.engine.State().String(),
		Track:     h.engine.Info(),
		Flight:    h.flight.Info(),
		Solutions: h.engine.Solutions(),
	}
}

// HandleSolutions returns the best result of every rule.
func (h *OLCHandler) HandleSolutions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.snapshot())
}

// HandleGeoJSON returns the valid routes and projections as a FeatureCollection.
func (h *OLCHandler) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	fc := olc.FeatureCollection(h.engine.Solutions())
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		slog.Error("Failed to encode geojson response", "error", err)
	}
}

// HandleTrack returns the decimated track as a GeoJSON feature.
func (h *OLCHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	f := olc.TrackFeature(h.engine.Track())
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(f); err != nil {
		slog.Error("Failed to encode track response", "error", err)
	}
}

// HandleReset drops the track and all results. The flight identity is kept.
func (h *OLCHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.engine.ResetFlight()
	if h.tracker != nil {
		h.tracker.Reset()
	}
	slog.Info("Scoring reset via API", "flight", h.flight.Info().ID)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
