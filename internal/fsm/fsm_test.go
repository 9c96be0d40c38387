package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)

	next, err = Transition(next, EventModifier)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)

	next, err = Transition(next, EventKey)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)

	next, err = Transition(next, EventKeyUp)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestEveryEndingEventReturnsToIdle(t *testing.T) {
	for _, ev := range []Event{EventKeyUp, EventEscape, EventTimeout, EventCancel, EventReplaced} {
		next, err := Transition(StateRecording, ev)
		require.NoError(t, err, ev)
		require.Equal(t, StateIdle, next, ev)
		require.True(t, Ends(ev), ev)
	}
	require.False(t, Ends(EventKey))
	require.False(t, Ends(EventStart))
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "idle key invalid", state: StateIdle, event: EventKey},
		{name: "idle keyup invalid", state: StateIdle, event: EventKeyUp},
		{name: "idle timeout invalid", state: StateIdle, event: EventTimeout},
		{name: "recording start invalid", state: StateRecording, event: EventStart},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.state, next)
			require.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
