package olc

import "errors"

var (
	// ErrInsufficientPoints means the track is too short to score.
	ErrInsufficientPoints = errors.New("olc: insufficient track points")
	// ErrBusy means a scoring pass is already in flight.
	ErrBusy = errors.New("olc: scoring pass already running")
	// ErrInvalidCheckpoint is returned when a checkpoint cannot be restored.
	ErrInvalidCheckpoint = errors.New("olc: invalid checkpoint")
	// ErrInvalidSettings is returned for out-of-range rule, handicap or capacity.
	ErrInvalidSettings = errors.New("olc: invalid settings")
)
