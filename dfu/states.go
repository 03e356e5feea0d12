package dfu

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// State is the orchestrator's session state.
type State string

// Session states.
const (
	StateIdle              State = "idle"
	StateResolving         State = "resolving"
	StateReady             State = "ready"
	StateStarting          State = "starting"
	StateInProgress        State = "in_progress"
	StateResourceRequested State = "resource_requested"
	StatePaused            State = "paused"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
	StateCancelled         State = "cancelled"
)

func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether s ends a session.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// isUnderway reports whether the engine owns the session.
func (s State) isUnderway() bool {
	switch s {
	case StateStarting, StateInProgress, StateResourceRequested, StatePaused:
		return true
	default:
		return false
	}
}

// State machine events.
const (
	evLoad            = "load"
	evResolved        = "resolved"
	evStart           = "start"
	evStarted         = "started"
	evRequestResource = "request_resource"
	evSupplyResource  = "supply_resource"
	evPause           = "pause"
	evResume          = "resume"
	evComplete        = "complete"
	evFail            = "fail"
	evCancel          = "cancel"
)

func states(ss ...State) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

// newStateMachine builds the session state machine. enter is invoked on
// every state change.
func newStateMachine(enter fsm.Callback) *fsm.FSM {
	return fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: evLoad, Src: states(StateIdle, StateCompleted, StateFailed, StateCancelled), Dst: string(StateResolving)},
			{Name: evResolved, Src: states(StateResolving), Dst: string(StateReady)},
			{Name: evStart, Src: states(StateReady), Dst: string(StateStarting)},
			{Name: evStarted, Src: states(StateStarting), Dst: string(StateInProgress)},
			{Name: evRequestResource, Src: states(StateStarting, StateInProgress, StateResourceRequested), Dst: string(StateResourceRequested)},
			{Name: evSupplyResource, Src: states(StateResourceRequested), Dst: string(StateInProgress)},
			{Name: evPause, Src: states(StateInProgress), Dst: string(StatePaused)},
			{Name: evResume, Src: states(StatePaused), Dst: string(StateInProgress)},
			{Name: evComplete, Src: states(StateStarting, StateInProgress, StateResourceRequested, StatePaused), Dst: string(StateCompleted)},
			{Name: evFail, Src: states(StateResolving, StateReady, StateStarting, StateInProgress, StateResourceRequested, StatePaused), Dst: string(StateFailed)},
			{Name: evCancel, Src: states(StateIdle, StateResolving, StateReady, StateStarting, StateInProgress, StateResourceRequested, StatePaused), Dst: string(StateCancelled)},
		},
		fsm.Callbacks{
			"enter_state": enter,
		},
	)
}

// fire triggers event on m. A self-transition is not an error.
func fire(m *fsm.FSM, event string) error {
	err := m.Event(context.Background(), event)
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}
