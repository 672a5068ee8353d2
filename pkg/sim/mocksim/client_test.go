package mocksim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"glidecomp/pkg/geo"
	"glidecomp/pkg/sim"
)

func testConfig() Config {
	heading := 90.0
	return Config{
		StartLat:       47.0,
		StartLon:       10.0,
		StartAlt:       500,
		StartHeading:   &heading,
		DurationParked: 10 * time.Second,
		ReleaseAlt:     1000,
		CloudBase:      2000,
		ThermalClimb:   2,
		CruiseSpeed:    30,
		LegLength:      10000,
		TimeScale:      1,
	}
}

func run(m *MockClient, seconds float64) {
	for t := 0.0; t < seconds; t += 1 {
		m.advance(1)
	}
}

func TestPhaseSequence(t *testing.T) {
	m := newClient(testConfig(), time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	tel, _ := m.GetTelemetry(ctx)
	if !tel.IsOnGround || tel.GroundSpeed != 0 {
		t.Fatalf("expected parked on ground, got %+v", tel)
	}

	run(m, 10)
	if got := m.Phase(); got != PhaseTow {
		t.Fatalf("phase after parking = %s, want %s", got, PhaseTow)
	}

	// 500 m at 3 m/s
	run(m, 167)
	if got := m.Phase(); got != PhaseGlide {
		t.Fatalf("phase after tow = %s, want %s", got, PhaseGlide)
	}
	tel, _ = m.GetTelemetry(ctx)
	if tel.IsOnGround {
		t.Error("expected airborne after release")
	}

	// Release is below the thermal floor (1100 m), so the first glide tick starts a thermal.
	run(m, 1)
	if got := m.Phase(); got != PhaseThermal {
		t.Fatalf("phase below thermal floor = %s, want %s", got, PhaseThermal)
	}

	// Climb to cloud base at 2 m/s
	run(m, 500)
	if got := m.Phase(); got != PhaseGlide {
		t.Fatalf("phase at cloud base = %s, want %s", got, PhaseGlide)
	}
	tel, _ = m.GetTelemetry(ctx)
	if math.Abs(tel.AltitudeMSL-2000) > 5 {
		t.Errorf("altitude after thermal = %.1f, want ~2000", tel.AltitudeMSL)
	}
}

func TestClockScales(t *testing.T) {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	m := newClient(testConfig(), start)
	m.advance(2.5)

	tel, _ := m.GetTelemetry(context.Background())
	if got := tel.Time.Sub(start); got != 2500*time.Millisecond {
		t.Errorf("clock advanced %v, want 2.5s", got)
	}
}

func TestGlideDistance(t *testing.T) {
	cfg := testConfig()
	cfg.DurationParked = 0
	cfg.ReleaseAlt = 1900 // above the thermal floor
	m := newClient(cfg, time.Now())

	for m.Phase() != PhaseGlide {
		m.advance(1)
	}
	m.mu.Lock()
	start := m.pos
	m.mu.Unlock()

	run(m, 60)

	tel, _ := m.GetTelemetry(context.Background())
	dist := geo.Distance(start, orb.Point{tel.Longitude, tel.Latitude})
	// 60 s at 30 m/s
	if math.Abs(dist-1800) > 5 {
		t.Errorf("glide distance = %.1f m, want 1800", dist)
	}
	if math.Abs(tel.Track-90) > 1 {
		t.Errorf("track = %.1f, want ~90", tel.Track)
	}
	if tel.VerticalSpeed >= 0 {
		t.Errorf("vario = %.2f, want sink", tel.VerticalSpeed)
	}
}

type fixedPolar float64

func (p fixedPolar) SinkRate(float64) float64 { return float64(p) }

func TestGlideUsesPolar(t *testing.T) {
	cfg := testConfig()
	cfg.DurationParked = 0
	cfg.ReleaseAlt = 1900
	cfg.Polar = fixedPolar(0.5)
	m := newClient(cfg, time.Now())
	for m.Phase() != PhaseGlide {
		m.advance(1)
	}
	m.mu.Lock()
	alt := m.alt
	m.mu.Unlock()

	run(m, 10)

	m.mu.Lock()
	defer m.mu.Unlock()
	if got := alt - m.alt; math.Abs(got-5) > 1e-6 {
		t.Errorf("height lost = %.3f, want 5", got)
	}
}

func TestLegTurn(t *testing.T) {
	cfg := testConfig()
	cfg.DurationParked = 0
	cfg.ReleaseAlt = 1900
	cfg.LegLength = 300
	cfg.Polar = fixedPolar(0)
	m := newClient(cfg, time.Now())
	for m.Phase() != PhaseGlide {
		m.advance(1)
	}
	run(m, 10)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.legHeading != 210 {
		t.Errorf("leg heading = %.1f, want 210", m.legHeading)
	}
}

func TestTurnToward(t *testing.T) {
	tests := []struct {
		name                  string
		heading, target, step float64
		want                  float64
	}{
		{"right turn", 90, 210, 12, 102},
		{"left turn", 210, 90, 12, 198},
		{"through north clockwise", 350, 10, 12, 2},
		{"through north counterclockwise", 10, 350, 12, 358},
		{"within one step", 90, 95, 12, 95},
		{"already on course", 90, 90, 12, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := turnToward(tt.heading, tt.target, tt.step); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("turnToward(%v, %v, %v) = %v, want %v", tt.heading, tt.target, tt.step, got, tt.want)
			}
		})
	}
}

func TestGlideRollsOutOfThermal(t *testing.T) {
	cfg := testConfig()
	cfg.DurationParked = 0
	cfg.ReleaseAlt = 1900
	cfg.Polar = fixedPolar(0)
	m := newClient(cfg, time.Now())
	for m.Phase() != PhaseGlide {
		m.advance(1)
	}

	m.mu.Lock()
	m.heading = 300
	m.mu.Unlock()

	m.advance(1)
	m.mu.Lock()
	if m.heading != 312 {
		t.Errorf("heading after one second = %.1f, want 312", m.heading)
	}
	m.mu.Unlock()

	// 150 degrees at 12 deg/s
	run(m, 12)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.heading != 90 {
		t.Errorf("heading after roll-out = %.1f, want 90", m.heading)
	}
}

func TestNewClientLoop(t *testing.T) {
	cfg := testConfig()
	cfg.DurationParked = 0
	cfg.TimeScale = 50
	client := NewClient(cfg)
	defer client.Close()

	var c sim.Client = client
	if c.GetState() != sim.StateActive {
		t.Fatal("mock should always be active")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tel, _ := c.GetTelemetry(context.Background())
		if !tel.IsOnGround {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Timeout waiting for launch")
}

func TestSetTimeScale(t *testing.T) {
	m := newClient(testConfig(), time.Now())

	m.SetTimeScale(8)
	if m.config.TimeScale != 8 {
		t.Errorf("TimeScale = %v, want 8", m.config.TimeScale)
	}
	m.SetTimeScale(0)
	m.SetTimeScale(-2)
	if m.config.TimeScale != 8 {
		t.Errorf("non-positive scale must be ignored, got %v", m.config.TimeScale)
	}
}
