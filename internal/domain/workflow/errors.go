package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger has no transition from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned for unknown lifecycle states
	ErrInvalidState = errors.New("invalid state")
)
