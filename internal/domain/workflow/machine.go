package workflow

// StateMachine tracks a current state and validates transitions out of it
type StateMachine interface {
	State() State

	// Fire moves to the state configured for trigger, or returns ErrInvalidTransition
	Fire(trigger Trigger) error
}
