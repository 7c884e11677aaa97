package lifecycle

import (
	"fmt"

	"github.com/bft-labs/clflog/internal/domain"
)

// State is the lifecycle state of a log writer.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{
	StateStopped:  "Stopped",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateCrashed:  "Crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// active reports whether the writer owns resources in state s.
func (s State) active() bool {
	return s == StateStarting || s == StateRunning || s == StateStopping
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

// CanTransition reports whether a writer in state from may move to state to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError reports a rejected state change. It matches
// domain.ErrAlreadyRunning when the writer was active and
// domain.ErrNotRunning otherwise.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("clflog: invalid state transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	if e.From.active() {
		return domain.ErrAlreadyRunning
	}
	return domain.ErrNotRunning
}

// EventEmitter is notified after every state change.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}
