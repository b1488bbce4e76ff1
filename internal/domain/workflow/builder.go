package workflow

import "fmt"

// StateMachineBuilder collects transitions and builds independent machines from them
type StateMachineBuilder interface {
	// Configure returns the transition table for the given source state
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions out of one state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
}

type transitionTable map[Trigger]State

type stateMachineBuilder struct {
	tables map[State]transitionTable
}

type stateMachine struct {
	current State
	tables  map[State]transitionTable
}

// NewBuilder creates an empty state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{tables: make(map[State]transitionTable)}
}

// Configure panics on unknown states; machines are wired at startup.
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	table, ok := b.tables[state]
	if !ok {
		table = make(transitionTable)
		b.tables[state] = table
	}
	return table
}

// Build copies the configured tables so later Configure calls do not leak into built machines.
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	tables := make(map[State]transitionTable, len(b.tables))
	for state, src := range b.tables {
		table := make(transitionTable, len(src))
		for trigger, to := range src {
			table[trigger] = to
		}
		tables[state] = table
	}

	return &stateMachine{current: initialState, tables: tables}
}

// Permit panics on unknown target states or a trigger configured twice.
func (t transitionTable) Permit(trigger Trigger, toState State) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	if _, dup := t[trigger]; dup {
		panic(fmt.Sprintf("trigger %s already configured", trigger))
	}
	t[trigger] = toState
	return t
}

func (m *stateMachine) State() State {
	return m.current
}

func (m *stateMachine) Fire(trigger Trigger) error {
	to, ok := m.tables[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = to
	return nil
}
