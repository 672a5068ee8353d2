package api

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"glidecomp/pkg/tracker"
)

// StatsHandler reports scoring pass statistics and server diagnostics.
type StatsHandler struct {
	tracker *tracker.Tracker
	started time.Time

	mu     sync.Mutex
	maxMem uint64
}

// NewStatsHandler creates the handler.
func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t, started: time.Now()}
}

// Diagnostics describes the server process.
type Diagnostics struct {
	MemoryMB    uint64  `json:"memory_mb"`
	MemoryMaxMB uint64  `json:"memory_max_mb"`
	Goroutines  int     `json:"goroutines"`
	UptimeSec   float64 `json:"uptime_sec"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Diagnostics Diagnostics                  `json:"diagnostics"`
	Passes      map[string]tracker.PassStats `json:"passes"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatsResponse{
		Diagnostics: h.gatherDiagnostics(),
		Passes:      h.tracker.Snapshot(),
	})
}

func (h *StatsHandler) gatherDiagnostics() Diagnostics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h.mu.Lock()
	if m.Alloc > h.maxMem {
		h.maxMem = m.Alloc
	}
	peak := h.maxMem
	h.mu.Unlock()

	return Diagnostics{
		MemoryMB:    bToMb(m.Alloc),
		MemoryMaxMB: bToMb(peak),
		Goroutines:  runtime.NumGoroutine(),
		UptimeSec:   time.Since(h.started).Seconds(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
