package sim

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConnected is returned when a client action requires a connection.
	ErrNotConnected = errors.New("fix source not connected")
)

// Client defines the interface for a fix source (simulator, logger or mock).
type Client interface {
	// GetTelemetry returns the current state of the glider.
	GetTelemetry(ctx context.Context) (Telemetry, error)
	// GetState returns the current connection/activity state.
	GetState() State
	// Close cleans up resources associated with the client.
	Close() error
}

// Telemetry represents a snapshot of glider state. Units are SI.
type Telemetry struct {
	Time          time.Time `json:"time"`
	Latitude      float64   `json:"lat"`       // Degrees
	Longitude     float64   `json:"lon"`       // Degrees
	AltitudeMSL   float64   `json:"alt_msl"`   // Meters
	AltitudeAGL   float64   `json:"alt_agl"`   // Meters
	Track         float64   `json:"track"`     // Degrees true, ground track
	GroundSpeed   float64   `json:"gs"`        // m/s
	VerticalSpeed float64   `json:"vario"`     // m/s
	IsOnGround    bool      `json:"on_ground"` // True if parked, rolling or landed
	FlightStage   string    `json:"stage"`
}

// DetermineFlightStage calculates a coarse flight phase from one sample.
func DetermineFlightStage(t *Telemetry) string {
	if t.IsOnGround {
		return "GROUND"
	}
	switch {
	case t.VerticalSpeed > 0.5:
		return "CLIMB"
	case t.VerticalSpeed < -0.5:
		return "GLIDE"
	}
	return "CRUISE"
}
