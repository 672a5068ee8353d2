package sim

import "time"

const (
	StageOnGround = "on_the_ground"
	StageRolling  = "rolling"
	StageTakeOff  = "take-off"
	StageAirborne = "airborne"
	StageClimb    = "climb"
	StageCruise   = "cruise"
	StageLanded   = "landed"
)

const (
	rollingSpeed = 3.0 // m/s, above this the glider moves on the ground
	climbVario   = 0.5 // m/s averaged climb that counts as thermalling
)

// StageMachine tracks the flight phase state across telemetry ticks.
type StageMachine struct {
	current        string
	candidate      string
	confirmations  int
	wasOnGround    bool
	wasAirborne    bool
	lastTransition map[string]time.Time
}

// NewStageMachine creates a stage machine in an uninitialized state.
func NewStageMachine() *StageMachine {
	return &StageMachine{
		current:        "",
		lastTransition: make(map[string]time.Time),
	}
}

// Update evaluates telemetry and returns the current refined stage.
func (m *StageMachine) Update(t *Telemetry) string {
	now := t.Time
	if now.IsZero() {
		now = time.Now()
	}

	// First-tick Initialization: determine fallback from actual ground status
	if m.current == "" {
		if t.IsOnGround {
			m.current = StageOnGround
			m.wasOnGround = true
		} else {
			m.current = StageAirborne
			m.wasAirborne = true
		}
		m.lastTransition[m.current] = now
		// Skip hysteresis for initial state
		return m.current
	}

	candidate := m.detectCandidate(t)

	// Hysteresis: Require 2 ticks to confirm state change
	switch {
	case candidate == m.current:
		m.candidate = ""
		m.confirmations = 0
	case candidate == m.candidate:
		m.confirmations++
		if m.confirmations >= 1 { // 0+1 = 2 ticks total (first detect + 1 confirmation)
			m.current = candidate
			m.lastTransition[m.current] = now
			m.candidate = ""
			m.confirmations = 0
		}
	default:
		m.candidate = candidate
		m.confirmations = 0
	}

	if t.IsOnGround {
		m.wasOnGround = true
	} else {
		m.wasAirborne = true
	}

	// Resets
	switch m.current {
	case StageClimb, StageCruise:
		m.wasOnGround = false
	case StageOnGround, StageRolling:
		m.wasAirborne = false
	}

	return m.current
}

func (m *StageMachine) Current() string {
	return m.current
}

// Flying reports whether the current stage is an airborne one.
func (m *StageMachine) Flying() bool {
	return IsFlyingStage(m.current)
}

// IsFlyingStage reports whether stage is an airborne stage.
func IsFlyingStage(stage string) bool {
	switch stage {
	case StageTakeOff, StageAirborne, StageClimb, StageCruise:
		return true
	}
	return false
}

func (m *StageMachine) detectCandidate(t *Telemetry) string {
	if t.IsOnGround {
		return m.detectGroundCandidate(t)
	}
	return m.detectAirborneCandidate(t)
}

func (m *StageMachine) detectGroundCandidate(t *Telemetry) string {
	// Touchdown after flight, including the landing roll
	if m.wasAirborne {
		return StageLanded
	}
	if m.current == StageLanded && t.GroundSpeed < rollingSpeed {
		return StageLanded
	}
	if t.GroundSpeed >= rollingSpeed {
		return StageRolling
	}
	return StageOnGround
}

func (m *StageMachine) detectAirborneCandidate(t *Telemetry) string {
	// Launch: first airborne stage after ground
	if m.wasOnGround && !IsFlyingStage(m.current) {
		return StageTakeOff
	}

	if t.VerticalSpeed > climbVario {
		return StageClimb
	}
	if m.current == StageTakeOff && m.wasOnGround && t.VerticalSpeed > -climbVario {
		// On tow or winch the climb rate settles late
		return StageTakeOff
	}
	return StageCruise
}

var stageTitles = map[string]string{
	StageOnGround: "On the Ground",
	StageRolling:  "Rolling",
	StageTakeOff:  "Launch",
	StageAirborne: "Airborne",
	StageClimb:    "Thermalling",
	StageCruise:   "Cruise",
	StageLanded:   "Landed",
}

// FormatStage returns a human-readable title for the stage.
func FormatStage(s string) string {
	if title, ok := stageTitles[s]; ok {
		return title
	}
	return "Unknown"
}

// FlightDuration returns the time since take-off at now,
// or 0 if a take-off timestamp is not available.
func (m *StageMachine) FlightDuration(now time.Time) time.Duration {
	takeOffTime, ok := m.lastTransition[StageTakeOff]
	if !ok || takeOffTime.IsZero() {
		return 0
	}
	return now.Sub(takeOffTime)
}
