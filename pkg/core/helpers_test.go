package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"glidecomp/pkg/config"
	"glidecomp/pkg/olc"
	"glidecomp/pkg/polar"
	"glidecomp/pkg/sim"
	"glidecomp/pkg/store"
)

// mockSimClient implements sim.Client
type mockSimClient struct {
	mu    sync.Mutex
	tel   sim.Telemetry
	err   error
	state sim.State
}

func (m *mockSimClient) GetTelemetry(ctx context.Context) (sim.Telemetry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tel, m.err
}

func (m *mockSimClient) GetState() sim.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == "" {
		return sim.StateActive
	}
	return m.state
}

func (m *mockSimClient) SetState(s sim.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *mockSimClient) Close() error { return nil }

func (m *mockSimClient) SetTelemetry(t *sim.Telemetry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tel = *t
}

// memCheckpointStore implements store.CheckpointStore in memory.
type memCheckpointStore struct {
	mu    sync.Mutex
	saved map[uuid.UUID]store.FlightCheckpoint
	saves int
}

func newMemCheckpointStore() *memCheckpointStore {
	return &memCheckpointStore{saved: make(map[uuid.UUID]store.FlightCheckpoint)}
}

func (m *memCheckpointStore) SaveCheckpoint(ctx context.Context, cp *store.FlightCheckpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[cp.FlightID] = *cp
	m.saves++
	return nil
}

func (m *memCheckpointStore) LoadLatestCheckpoint(ctx context.Context) (*store.FlightCheckpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *store.FlightCheckpoint
	for _, cp := range m.saved {
		if best == nil || cp.SavedAt.After(best.SavedAt) {
			c := cp
			best = &c
		}
	}
	if best == nil {
		return nil, store.ErrNoCheckpoint
	}
	return best, nil
}

func (m *memCheckpointStore) DeleteCheckpoint(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, id)
	return nil
}

func (m *memCheckpointStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func newTestEngine(t *testing.T, rule olc.Rule) *olc.Engine {
	t.Helper()
	s := olc.DefaultSettings()
	s.Rule = rule
	e, err := olc.NewEngine(s, polar.MustDefault(), nil)
	require.NoError(t, err)
	return e
}

func newTestProvider() *config.UnifiedProvider {
	cfg := config.DefaultConfig()
	cfg.OLC.SampleInterval = config.Duration(5 * time.Second)
	return config.NewProvider(cfg, nil)
}

var flightStart = time.Date(2026, 7, 4, 11, 0, 0, 0, time.UTC)

// airborne returns a flying fix east of the start at second s.
func airborne(s int, lon, alt float64) *sim.Telemetry {
	return &sim.Telemetry{
		Time:          flightStart.Add(time.Duration(s) * time.Second),
		Latitude:      47.0,
		Longitude:     lon,
		AltitudeMSL:   alt,
		Track:         90,
		GroundSpeed:   30,
		VerticalSpeed: -1,
	}
}

func grounded(s int) *sim.Telemetry {
	return &sim.Telemetry{
		Time:        flightStart.Add(time.Duration(s) * time.Second),
		Latitude:    47.0,
		Longitude:   10.0,
		AltitudeMSL: 500,
		IsOnGround:  true,
	}
}
