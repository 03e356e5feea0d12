package dfu

import (
	"context"
	"testing"

	"github.com/looplab/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		want   State
	}{
		{"load", []string{evLoad}, StateResolving},
		{"ready", []string{evLoad, evResolved}, StateReady},
		{"running", []string{evLoad, evResolved, evStart, evStarted}, StateInProgress},
		{"resource round trip", []string{evLoad, evResolved, evStart, evStarted, evRequestResource, evSupplyResource}, StateInProgress},
		{"request while starting", []string{evLoad, evResolved, evStart, evRequestResource}, StateResourceRequested},
		{"paused", []string{evLoad, evResolved, evStart, evStarted, evPause}, StatePaused},
		{"complete while paused", []string{evLoad, evResolved, evStart, evStarted, evPause, evComplete}, StateCompleted},
		{"parse failure", []string{evLoad, evFail}, StateFailed},
		{"cancel idle", []string{evCancel}, StateCancelled},
		{"reload after failure", []string{evLoad, evFail, evLoad}, StateResolving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newStateMachine(func(context.Context, *fsm.Event) {})
			for _, ev := range tt.events {
				require.NoError(t, fire(m, ev), "event %s", ev)
			}
			assert.Equal(t, tt.want, State(m.Current()))
		})
	}
}

func TestStateMachineRejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		bad    string
	}{
		{"pause idle", nil, evPause},
		{"resume running", []string{evLoad, evResolved, evStart, evStarted}, evResume},
		{"start idle", nil, evStart},
		{"complete ready", []string{evLoad, evResolved}, evComplete},
		{"cancel completed", []string{evLoad, evResolved, evStart, evComplete}, evCancel},
		{"fail cancelled", []string{evCancel}, evFail},
		{"load running", []string{evLoad, evResolved, evStart, evStarted}, evLoad},
		{"load ready", []string{evLoad, evResolved}, evLoad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newStateMachine(func(context.Context, *fsm.Event) {})
			for _, ev := range tt.events {
				require.NoError(t, fire(m, ev))
			}
			before := m.Current()
			assert.Error(t, fire(m, tt.bad))
			assert.Equal(t, before, m.Current())
		})
	}
}

func TestRepeatedResourceRequestIsNotAnError(t *testing.T) {
	m := newStateMachine(func(context.Context, *fsm.Event) {})
	for _, ev := range []string{evLoad, evResolved, evStart, evStarted, evRequestResource} {
		require.NoError(t, fire(m, ev))
	}
	assert.NoError(t, fire(m, evRequestResource))
	assert.Equal(t, string(StateResourceRequested), m.Current())
}

func TestStateIsTerminal(t *testing.T) {
	for _, s := range []State{StateCompleted, StateFailed, StateCancelled} {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []State{StateIdle, StateResolving, StateReady, StateStarting, StateInProgress, StateResourceRequested, StatePaused} {
		assert.False(t, s.IsTerminal(), s)
	}
}
