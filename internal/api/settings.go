package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"glidecomp/pkg/config"
	"glidecomp/pkg/olc"
)

// maxTimeScale bounds the mock clock; faster runs skip too many samples.
const maxTimeScale = 100

// TimeScaler is a telemetry source whose clock rate can change (the mock glider).
type TimeScaler interface {
	SetTimeScale(scale float64)
}

// SettingsHandler reads and changes the contest rule and handicap at runtime.
// Changes are persisted through the config provider and applied to the
// engine right away.
type SettingsHandler struct {
	cfgProv config.Provider
	engine  *olc.Engine
	scaler  TimeScaler
}

// NewSettingsHandler creates a new SettingsHandler. scaler may be nil when
// the telemetry source runs in real time.
func NewSettingsHandler(cfg config.Provider, engine *olc.Engine, scaler TimeScaler) *SettingsHandler {
	return &SettingsHandler{cfgProv: cfg, engine: engine, scaler: scaler}
}

// SettingsResponse represents the settings API response.
type SettingsResponse struct {
	Rule      string  `json:"rule"`
	Handicap  int     `json:"handicap"`
	TimeScale float64 `json:"time_scale,omitempty"`
}

// SettingsRequest represents an update. Missing fields are left unchanged.
type SettingsRequest struct {
	Rule      string   `json:"rule,omitempty"`
	Handicap  *int     `json:"handicap,omitempty"` // Pointer to detect 0 vs missing
	TimeScale *float64 `json:"time_scale,omitempty"`
}

// HandleSettings is a unified handler for all settings methods, facilitating CORS/OPTIONS.
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		writeJSON(w, h.current(r.Context()))
	case http.MethodPut, http.MethodPost:
		h.handleUpdate(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) current(ctx context.Context) SettingsResponse {
	s := h.engine.Settings()
	resp := SettingsResponse{Rule: s.Rule.String(), Handicap: s.Handicap}
	if h.scaler != nil {
		resp.TimeScale = h.cfgProv.MockTimeScale(ctx)
	}
	return resp
}

func (h *SettingsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	var req SettingsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// Validate everything before touching state
	var rule olc.Rule
	if req.Rule != "" {
		if rule, err = olc.ParseRule(req.Rule); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Handicap != nil && *req.Handicap <= 0 {
		http.Error(w, fmt.Sprintf("handicap %d must be positive", *req.Handicap), http.StatusBadRequest)
		return
	}
	if req.TimeScale != nil {
		if h.scaler == nil {
			http.Error(w, "time scale is fixed for this telemetry source", http.StatusBadRequest)
			return
		}
		if *req.TimeScale <= 0 || *req.TimeScale > maxTimeScale {
			http.Error(w, fmt.Sprintf("time scale %g outside (0,%d]", *req.TimeScale, maxTimeScale), http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	if req.Rule != "" {
		if err := h.cfgProv.SetOLCRule(ctx, rule.String()); err != nil {
			slog.Error("Failed to persist rule", "error", err)
			http.Error(w, "Failed to save", http.StatusInternalServerError)
			return
		}
		_ = h.engine.SetRule(rule)
		slog.Info("Contest rule changed via API", "rule", rule)
	}
	if req.Handicap != nil {
		if err := h.cfgProv.SetHandicap(ctx, *req.Handicap); err != nil {
			slog.Error("Failed to persist handicap", "error", err)
			http.Error(w, "Failed to save", http.StatusInternalServerError)
			return
		}
		_ = h.engine.SetHandicap(*req.Handicap)
		slog.Info("Handicap changed via API", "handicap", *req.Handicap)
	}
	if req.TimeScale != nil {
		if err := h.cfgProv.SetMockTimeScale(ctx, *req.TimeScale); err != nil {
			slog.Error("Failed to persist time scale", "error", err)
			http.Error(w, "Failed to save", http.StatusInternalServerError)
			return
		}
		h.scaler.SetTimeScale(*req.TimeScale)
		slog.Info("Mock time scale changed via API", "scale", *req.TimeScale)
	}

	writeJSON(w, h.current(r.Context()))
}
