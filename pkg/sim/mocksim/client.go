// Package mocksim simulates a cross-country glider flight for demos and tests.
package mocksim

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"glidecomp/pkg/geo"
	"glidecomp/pkg/sim"
)

const (
	// Flight phases
	PhaseParked  = "PARKED"
	PhaseTow     = "TOW"
	PhaseGlide   = "GLIDE"
	PhaseThermal = "THERMAL"

	tickRateMs = 100

	towSpeed     = 30.0 // m/s
	towClimb     = 3.0  // m/s
	thermalSpeed = 25.0 // m/s
	circleTime   = 30.0 // seconds per full circle
	legTurn      = 120.0
	defaultSink  = 1.0 // m/s when no polar is configured
)

// Polar gives the still-air sink rate (m/s, positive down) at speed v (m/s).
type Polar interface {
	SinkRate(v float64) float64
}

// Config holds the mock flight profile. Altitudes are meters MSL.
type Config struct {
	StartLat       float64
	StartLon       float64
	StartAlt       float64
	StartHeading   *float64
	DurationParked time.Duration
	ReleaseAlt     float64
	CloudBase      float64
	ThermalClimb   float64 // m/s
	CruiseSpeed    float64 // m/s
	LegLength      float64 // meters
	// TimeScale speeds up the simulated clock relative to wall time.
	TimeScale float64
	Polar     Polar
}

// MockClient implements sim.Client.
type MockClient struct {
	mu         sync.Mutex
	tel        sim.Telemetry
	phase      string
	phaseStart time.Time
	clock      time.Time
	config     Config
	stopCh     chan struct{}
	wg         sync.WaitGroup

	pos        orb.Point
	alt        float64
	heading    float64
	legHeading float64
	legLeft    float64

	trackBuf *geo.TrackBuffer
	vario    *sim.VerticalSpeedBuffer
}

// NewClient creates a new mock client and starts its physics loop.
func NewClient(cfg Config) *MockClient {
	m := newClient(cfg, time.Now())
	m.wg.Add(1)
	go m.physicsLoop()
	return m
}

func newClient(cfg Config, start time.Time) *MockClient {
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1
	}
	if cfg.CruiseSpeed <= 0 {
		cfg.CruiseSpeed = 30
	}
	if cfg.LegLength <= 0 {
		cfg.LegLength = 20000
	}
	if cfg.CloudBase <= cfg.StartAlt {
		cfg.CloudBase = cfg.StartAlt + 1500
	}
	if cfg.ReleaseAlt <= cfg.StartAlt {
		cfg.ReleaseAlt = cfg.StartAlt + 500
	}
	if cfg.ThermalClimb <= 0 {
		cfg.ThermalClimb = 2
	}

	heading := getHeading(cfg.StartHeading)
	m := &MockClient{
		config:     cfg,
		stopCh:     make(chan struct{}),
		phase:      PhaseParked,
		phaseStart: start,
		clock:      start,
		pos:        orb.Point{cfg.StartLon, cfg.StartLat},
		alt:        cfg.StartAlt,
		heading:    heading,
		legHeading: heading,
		legLeft:    cfg.LegLength,
		trackBuf:   geo.NewTrackBuffer(5),
		vario:      sim.NewVerticalSpeedBuffer(5 * time.Second),
	}
	m.publish(0)
	return m
}

// GetTelemetry returns the current state of the simulated glider.
func (m *MockClient) GetTelemetry(ctx context.Context) (sim.Telemetry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tel, nil
}

// GetState returns the current connection/activity state.
// Mock is always active.
func (m *MockClient) GetState() sim.State {
	return sim.StateActive
}

// SetTimeScale changes the simulated clock rate.
func (m *MockClient) SetTimeScale(scale float64) {
	if scale <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.TimeScale = scale
}

// Phase returns the current flight phase.
func (m *MockClient) Phase() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Close stops the physics loop and releases resources.
func (m *MockClient) Close() error {
	close(m.stopCh)
	m.wg.Wait()
	return nil
}

func (m *MockClient) physicsLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Duration(tickRateMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.mu.Lock()
			dt := float64(tickRateMs) / 1000.0 * m.config.TimeScale
			m.mu.Unlock()
			m.advance(dt)
		}
	}
}

// advance moves the simulation forward by dt simulated seconds.
func (m *MockClient) advance(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clock = m.clock.Add(time.Duration(dt * float64(time.Second)))
	var speed float64

	switch m.phase {
	case PhaseParked:
		if m.clock.Sub(m.phaseStart) >= m.config.DurationParked {
			m.setPhase(PhaseTow)
		}

	case PhaseTow:
		speed = towSpeed
		m.alt += towClimb * dt
		m.move(speed, dt)
		if m.alt >= m.config.ReleaseAlt {
			m.setPhase(PhaseGlide)
		}

	case PhaseGlide:
		speed = m.config.CruiseSpeed
		m.alt -= m.sink(speed) * dt
		m.heading = turnToward(m.heading, m.legHeading, 360.0/circleTime*dt)
		m.move(speed, dt)
		m.legLeft -= speed * dt
		if m.legLeft <= 0 {
			m.legHeading = math.Mod(m.legHeading+legTurn, 360)
			m.legLeft = m.config.LegLength
		}
		if m.alt <= m.thermalFloor() {
			m.setPhase(PhaseThermal)
		}

	case PhaseThermal:
		speed = thermalSpeed
		m.alt += m.config.ThermalClimb * dt
		m.heading = math.Mod(m.heading+360.0/circleTime*dt, 360)
		m.move(speed, dt)
		if m.alt >= m.config.CloudBase {
			m.alt = m.config.CloudBase
			m.setPhase(PhaseGlide)
		}
	}

	m.publish(speed)
}

// thermalFloor is the altitude at which the glider stops to climb.
func (m *MockClient) thermalFloor() float64 {
	ground := m.config.StartAlt
	return ground + 0.4*(m.config.CloudBase-ground)
}

func (m *MockClient) sink(v float64) float64 {
	if m.config.Polar == nil {
		return defaultSink
	}
	return m.config.Polar.SinkRate(v)
}

// turnToward turns heading toward target by at most step degrees, the short way round.
func turnToward(heading, target, step float64) float64 {
	delta := geo.NormalizeAngle(target - heading)
	if math.Abs(delta) <= step {
		return target
	}
	return math.Mod(heading+math.Copysign(step, delta)+360, 360)
}

func (m *MockClient) move(speed, dt float64) {
	m.pos = geo.DestinationPoint(m.pos, speed*dt, m.heading)
}

func (m *MockClient) setPhase(p string) {
	m.phase = p
	m.phaseStart = m.clock
}

func (m *MockClient) publish(speed float64) {
	onGround := m.phase == PhaseParked
	track := m.heading
	if onGround {
		m.trackBuf.Reset()
	} else {
		track = m.trackBuf.Push(m.pos, m.heading)
	}

	m.tel = sim.Telemetry{
		Time:          m.clock,
		Latitude:      m.pos.Lat(),
		Longitude:     m.pos.Lon(),
		AltitudeMSL:   m.alt,
		AltitudeAGL:   math.Max(0, m.alt-m.config.StartAlt),
		Track:         track,
		GroundSpeed:   speed,
		VerticalSpeed: m.vario.Update(m.clock, m.alt),
		IsOnGround:    onGround,
	}
	m.tel.FlightStage = sim.DetermineFlightStage(&m.tel)
}

func getHeading(h *float64) float64 {
	if h == nil {
		return rand.Float64() * 360.0
	}
	return *h
}
