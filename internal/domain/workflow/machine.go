package workflow

import "context"

// Step records one fired transition
type Step struct {
	From    State
	To      State
	Trigger Trigger
}

// StateMachine holds the state of one request and applies triggers to it
type StateMachine interface {
	State() State

	// CanFire reports whether trigger has an edge out of the current state; guards are not run
	CanFire(trigger Trigger) bool

	// Fire moves along the edge of trigger and returns the step taken.
	// On error the state is unchanged.
	Fire(ctx context.Context, trigger Trigger) (Step, error)

	// PermittedTriggers lists the triggers with an edge out of the current state, sorted
	PermittedTriggers() []Trigger
}
