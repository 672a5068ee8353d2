package geo

import (
	"sync"

	"github.com/paulmach/orb"
)

// TrackBuffer maintains a rolling window of positions and calculates the average ground track.
type TrackBuffer struct {
	mu         sync.RWMutex
	samples    []orb.Point
	windowSize int
}

// NewTrackBuffer creates a new buffer with the specified sample window size.
func NewTrackBuffer(windowSize int) *TrackBuffer {
	if windowSize < 2 {
		windowSize = 2
	}
	return &TrackBuffer{
		windowSize: windowSize,
	}
}

// Push adds a new point to the buffer and returns the current ground track in degrees.
// Until two distinct positions are buffered, it returns the provided default heading.
func (b *TrackBuffer) Push(p orb.Point, defaultHeading float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = append(b.samples, p)
	if len(b.samples) > b.windowSize {
		b.samples = b.samples[1:]
	}

	first, last := b.samples[0], b.samples[len(b.samples)-1]
	if len(b.samples) < 2 || first.Equal(last) {
		return defaultHeading
	}

	return Bearing(first, last)
}

// Reset clears the buffer history.
func (b *TrackBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = nil
}
