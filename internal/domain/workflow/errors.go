package workflow

import "errors"

var (
	// ErrInvalidTransition means the trigger has no edge out of the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState means a stored state is unknown
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed means the edge exists but its guard refused it
	ErrGuardFailed = errors.New("guard condition failed")
)
