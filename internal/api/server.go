package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"glidecomp/pkg/logging"
	"glidecomp/pkg/version"
)

// Handlers bundles the endpoint handlers served by NewServer.
type Handlers struct {
	Telemetry *TelemetryHandler
	OLC       *OLCHandler
	Settings  *SettingsHandler
	Stats     *StatsHandler
	Stream    *StreamHub
}

// NewServer creates and configures the HTTP server.
// shutdown is called asynchronously by POST /api/shutdown.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Telemetry
	mux.HandleFunc("GET /api/telemetry", h.Telemetry.handleTelemetry)

	// 3. Scoring results
	mux.HandleFunc("GET /api/olc", h.OLC.HandleSolutions)
	mux.HandleFunc("GET /api/olc/geojson", h.OLC.HandleGeoJSON)
	mux.HandleFunc("GET /api/olc/track", h.OLC.HandleTrack)
	mux.HandleFunc("POST /api/olc/reset", h.OLC.HandleReset)
	if h.Stream != nil {
		mux.Handle("GET /api/olc/stream", h.Stream)
	}

	// 4. Contest settings
	mux.HandleFunc("/api/olc/settings", h.Settings.HandleSettings)

	// 5. Diagnostics
	mux.Handle("GET /api/stats", h.Stats)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.HandleFunc("GET /api/log/events", handleLatestEvent)

	// 6. Shutdown
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			if shutdown != nil {
				shutdown()
			}
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
