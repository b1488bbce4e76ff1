package workflow

import "fmt"

var (
	expenseLifecycle = buildExpenseLifecycle()
	requestLifecycle = buildRequestLifecycle()
)

// draft -> submitted -> approved | rejected
func buildExpenseLifecycle() StateMachineBuilder {
	b := NewBuilder()
	b.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)
	b.Configure(StateSubmitted).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)
	return b
}

// pending -> approved | rejected
func buildRequestLifecycle() StateMachineBuilder {
	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)
	return b
}

// NewExpenseMachine returns an expense lifecycle positioned at status.
func NewExpenseMachine(status string) (StateMachine, error) {
	s := State(status)
	if !s.IsValid() || s == StatePending {
		return nil, fmt.Errorf("%w: expense status %q", ErrInvalidState, status)
	}
	return expenseLifecycle.Build(s), nil
}

// NewRequestMachine returns an approval request lifecycle positioned at status.
func NewRequestMachine(status string) (StateMachine, error) {
	s := State(status)
	if s != StatePending && s != StateApproved && s != StateRejected {
		return nil, fmt.Errorf("%w: request status %q", ErrInvalidState, status)
	}
	return requestLifecycle.Build(s), nil
}

// NextStatus fires trigger against a machine positioned at status and returns the resulting status.
func NextStatus(m StateMachine, trigger Trigger) (string, error) {
	if err := m.Fire(trigger); err != nil {
		return "", err
	}
	return m.State().String(), nil
}

// TriggerForOutcome maps a decision outcome to its trigger.
func TriggerForOutcome(outcome string) (Trigger, bool) {
	switch State(outcome) {
	case StateApproved:
		return TriggerApprove, true
	case StateRejected:
		return TriggerReject, true
	default:
		return "", false
	}
}
