package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"glidecomp/pkg/core"
	"glidecomp/pkg/sim"
)

// TelemetryResponse is the latest fix plus the simulator and flight state.
type TelemetryResponse struct {
	sim.Telemetry
	SimState string           `json:"sim_state"`
	AgeSec   float64          `json:"age_sec"`
	Flight   *core.FlightInfo `json:"flight,omitempty"`
}

// TelemetryHandler keeps the last telemetry pushed by the scheduler.
type TelemetryHandler struct {
	mu        sync.RWMutex
	telemetry sim.Telemetry
	simState  sim.State
	received  time.Time
	flight    *core.Flight
}

// NewTelemetryHandler creates the handler. flight may be nil.
func NewTelemetryHandler(flight *core.Flight) *TelemetryHandler {
	return &TelemetryHandler{simState: sim.StateDisconnected, flight: flight}
}

// Update implements core.TelemetrySink.
func (h *TelemetryHandler) Update(t *sim.Telemetry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.telemetry = *t
	h.received = time.Now()
}

// UpdateState implements core.TelemetrySink.
func (h *TelemetryHandler) UpdateState(s sim.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.simState = s
}

func (h *TelemetryHandler) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := TelemetryResponse{
		Telemetry: h.telemetry,
		SimState:  string(h.simState),
	}
	if !h.received.IsZero() {
		resp.AgeSec = time.Since(h.received).Seconds()
	}
	h.mu.RUnlock()

	if h.flight != nil {
		info := h.flight.Info()
		resp.Flight = &info
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode telemetry response", "error", err)
	}
}
