package commonlog

import "github.com/bft-labs/clflog/pkg/lifecycle"

// State is the lifecycle state of a CommonLog.
type State = lifecycle.State

// Lifecycle states.
const (
	StateStopped  = lifecycle.StateStopped
	StateStarting = lifecycle.StateStarting
	StateRunning  = lifecycle.StateRunning
	StateStopping = lifecycle.StateStopping
	StateCrashed  = lifecycle.StateCrashed
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// WriteErrorEvent is emitted when the background writer fails to append or
// sync records. The writer keeps going with the next batch.
type WriteErrorEvent struct {
	Error error
}

// EventHandler receives CommonLog events.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnWriteError(event WriteErrorEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle a
// subset of events.
type BaseEventHandler struct{}

// OnStateChange does nothing.
func (BaseEventHandler) OnStateChange(StateChangeEvent) {}

// OnWriteError does nothing.
func (BaseEventHandler) OnWriteError(WriteErrorEvent) {}

// eventEmitterWrapper adapts EventHandler to lifecycle.EventEmitter.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current lifecycle.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{Previous: previous, Current: current, Reason: reason})
}

func (e *eventEmitterWrapper) onWriteError(err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnWriteError(WriteErrorEvent{Error: err})
}
