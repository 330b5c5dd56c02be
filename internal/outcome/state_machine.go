package outcome

import (
	"fmt"
	"sync"
)

const (
	stateIdleLabelConstant            = "idle"
	stateRunningLabelConstant         = "running"
	stateSucceededLabelConstant       = "succeeded"
	stateExpectedFailedLabelConstant  = "expected_failed"
	stateUnknownLabelConstant         = "unknown"
	stateCancelledLabelConstant       = "cancelled"
	stateInvalidLabelConstant         = "invalid"
	invalidTransitionTemplateConstant = "%w: %s -> %s"
)

// State is a position in the per-invocation lifecycle.
type State int

// Lifecycle states. Succeeded, ExpectedFailed, Unknown, and Cancelled are terminal.
const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateExpectedFailed
	StateUnknown
	StateCancelled
)

// String renders the state label.
func (state State) String() string {
	switch state {
	case StateIdle:
		return stateIdleLabelConstant
	case StateRunning:
		return stateRunningLabelConstant
	case StateSucceeded:
		return stateSucceededLabelConstant
	case StateExpectedFailed:
		return stateExpectedFailedLabelConstant
	case StateUnknown:
		return stateUnknownLabelConstant
	case StateCancelled:
		return stateCancelledLabelConstant
	default:
		return stateInvalidLabelConstant
	}
}

// Terminal reports whether no transition leaves the state.
func (state State) Terminal() bool {
	return state >= StateSucceeded && state <= StateCancelled
}

// StateForKind returns the terminal state reached by an outcome kind.
func StateForKind(kind Kind) (State, bool) {
	switch kind {
	case KindSuccess:
		return StateSucceeded, true
	case KindExpectedFailure:
		return StateExpectedFailed, true
	case KindUnknown:
		return StateUnknown, true
	case KindCancelled:
		return StateCancelled, true
	default:
		return StateIdle, false
	}
}

// StateMachine tracks one invocation through Idle, Running, and a terminal state.
type StateMachine struct {
	mutex sync.Mutex
	state State
}

// NewStateMachine constructs a machine in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateIdle}
}

// State reports the current state.
func (machine *StateMachine) State() State {
	machine.mutex.Lock()
	defer machine.mutex.Unlock()
	return machine.state
}

// Start moves Idle to Running.
func (machine *StateMachine) Start() error {
	machine.mutex.Lock()
	defer machine.mutex.Unlock()

	if machine.state != StateIdle {
		return fmt.Errorf(invalidTransitionTemplateConstant, ErrInvalidTransition, machine.state, StateRunning)
	}
	machine.state = StateRunning
	return nil
}

// Finish moves Running to the terminal state for kind.
func (machine *StateMachine) Finish(kind Kind) (State, error) {
	machine.mutex.Lock()
	defer machine.mutex.Unlock()

	targetState, known := StateForKind(kind)
	if !known {
		return machine.state, fmt.Errorf(invalidTransitionTemplateConstant, ErrInvalidTransition, machine.state, kind)
	}
	if machine.state != StateRunning {
		return machine.state, fmt.Errorf(invalidTransitionTemplateConstant, ErrInvalidTransition, machine.state, targetState)
	}
	machine.state = targetState
	return targetState, nil
}
