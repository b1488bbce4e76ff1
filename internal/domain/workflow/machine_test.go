package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateSubmitted, false},
		{StatePending, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"rejected", StateRejected, true},
		{"unknown", State("archived"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	NewBuilder().Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build(State("INVALID"))
}

func TestStateConfiguration_PermitPanicsOnDuplicateTrigger(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic when a trigger is configured twice")
		}
	}()

	NewBuilder().Configure(StateSubmitted).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerApprove, StateRejected)
}

func TestStateMachine_FireUnknownTriggerKeepsState(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).Permit(TriggerApprove, StateApproved)

	m := builder.Build(StateSubmitted)
	if err := m.Fire(TriggerSubmit); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if m.State() != StateSubmitted {
		t.Errorf("State after failed Fire() = %v, want %v", m.State(), StateSubmitted)
	}
}

func TestStateMachine_BuildIsolatesMachines(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).Permit(TriggerSubmit, StateSubmitted)

	m1 := builder.Build(StateDraft)
	m2 := builder.Build(StateDraft)

	if err := m1.Fire(TriggerSubmit); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m2.State() != StateDraft {
		t.Errorf("m2 state = %v, want %v", m2.State(), StateDraft)
	}

	// configuring after Build must not affect built machines
	builder.Configure(StateDraft).Permit(TriggerReject, StateRejected)
	if err := m2.Fire(TriggerReject); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("built machine picked up a later transition: error = %v", err)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		trigger Trigger
		want    string
		wantErr error
	}{
		{"submit draft", "draft", TriggerSubmit, "submitted", nil},
		{"approve submitted", "submitted", TriggerApprove, "approved", nil},
		{"reject submitted", "submitted", TriggerReject, "rejected", nil},
		{"approve draft", "draft", TriggerApprove, "", ErrInvalidTransition},
		{"resubmit submitted", "submitted", TriggerSubmit, "", ErrInvalidTransition},
		{"reject approved", "approved", TriggerReject, "", ErrInvalidTransition},
		{"approve rejected", "rejected", TriggerApprove, "", ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewExpenseMachine(tt.from)
			if err != nil {
				t.Fatalf("NewExpenseMachine() error = %v", err)
			}
			got, err := NextStatus(m, tt.trigger)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NextStatus() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NextStatus() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NextStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestLifecycle(t *testing.T) {
	m, err := NewRequestMachine("pending")
	if err != nil {
		t.Fatalf("NewRequestMachine() error = %v", err)
	}
	if got, err := NextStatus(m, TriggerReject); err != nil || got != "rejected" {
		t.Fatalf("NextStatus() = %v, %v; want rejected", got, err)
	}

	decided, _ := NewRequestMachine("approved")
	if _, err := NextStatus(decided, TriggerReject); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("deciding a decided request: error = %v, want %v", err, ErrInvalidTransition)
	}

	if _, err := NewRequestMachine("draft"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("NewRequestMachine(draft) error = %v, want %v", err, ErrInvalidState)
	}
	if _, err := NewExpenseMachine("pending"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("NewExpenseMachine(pending) error = %v, want %v", err, ErrInvalidState)
	}
}

func TestTriggerForOutcome(t *testing.T) {
	if tr, ok := TriggerForOutcome("approved"); !ok || tr != TriggerApprove {
		t.Errorf("TriggerForOutcome(approved) = %v, %v", tr, ok)
	}
	if tr, ok := TriggerForOutcome("rejected"); !ok || tr != TriggerReject {
		t.Errorf("TriggerForOutcome(rejected) = %v, %v", tr, ok)
	}
	if _, ok := TriggerForOutcome("maybe"); ok {
		t.Error("TriggerForOutcome(maybe) should not map")
	}
}
