// Package fsm holds the shortcut recording state machine. A session runs
// from start until a key-up, Escape, the timeout, a cancel, or a newer
// session ends it.
package fsm

import (
	"errors"
	"fmt"
)

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

const (
	EventStart    Event = "start"
	EventModifier Event = "modifier"
	EventKey      Event = "key"

	EventKeyUp    Event = "keyup"
	EventEscape   Event = "escape"
	EventTimeout  Event = "timeout"
	EventCancel   Event = "cancel"
	EventReplaced Event = "replaced"
)

// ErrInvalidTransition reports an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transition")

var table = map[State]map[Event]State{
	StateIdle: {
		EventStart: StateRecording,
	},
	StateRecording: {
		EventModifier: StateRecording,
		EventKey:      StateRecording,
		EventKeyUp:    StateIdle,
		EventEscape:   StateIdle,
		EventTimeout:  StateIdle,
		EventCancel:   StateIdle,
		EventReplaced: StateIdle,
	},
}

func Transition(current State, event Event) (State, error) {
	edges, ok := table[current]
	if !ok {
		return current, fmt.Errorf("unknown state %q", current)
	}
	next, ok := edges[event]
	if !ok {
		return current, fmt.Errorf("%w: %s --(%s)--> ?", ErrInvalidTransition, current, event)
	}
	return next, nil
}

// Ends reports whether event finishes a recording session.
func Ends(event Event) bool {
	return table[StateRecording][event] == StateIdle
}
