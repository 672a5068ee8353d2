// Package sim provides fix source interfaces and types.
package sim

// State represents the connection and activity state of the fix source.
type State string

const (
	// StateDisconnected indicates no connection to the source.
	StateDisconnected State = "disconnected"
	// StateInactive indicates connected but not delivering fixes (paused).
	StateInactive State = "inactive"
	// StateActive indicates connected and delivering fixes.
	StateActive State = "active"
)

// Usable reports whether telemetry from a source in this state should be ingested.
func (s State) Usable() bool {
	return s == StateActive
}
