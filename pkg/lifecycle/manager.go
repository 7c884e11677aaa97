package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/clflog/internal/domain"
	"github.com/bft-labs/clflog/pkg/log"
)

// Manager guards the state of a log writer and tracks the goroutines it
// runs. The zero value is not usable; use NewManager.
type Manager struct {
	mu      sync.RWMutex
	state   State
	cancel  context.CancelFunc
	workers sync.WaitGroup

	logger  log.Logger
	emitter EventEmitter
}

// NewManager returns a Manager in StateStopped. emitter may be nil.
func NewManager(logger log.Logger, emitter EventEmitter) *Manager {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Manager{state: StateStopped, logger: logger, emitter: emitter}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CanStart reports whether a start may begin.
func (m *Manager) CanStart() bool {
	return CanTransition(m.State(), StateStarting)
}

// CanStop reports whether a stop may begin.
func (m *Manager) CanStop() bool {
	return CanTransition(m.State(), StateStopping)
}

// TransitionTo moves to next, or returns a *TransitionError if next is not
// reachable from the current state. The emitter is called without the lock.
func (m *Manager) TransitionTo(next State, reason string) error {
	m.mu.Lock()
	prev := m.state
	if !CanTransition(prev, next) {
		m.mu.Unlock()
		return &TransitionError{From: prev, To: next}
	}
	m.state = next
	m.mu.Unlock()

	if m.emitter != nil {
		m.emitter.OnStateChange(prev, next, reason)
	}
	m.logger.Info("state transition",
		log.String("from", prev.String()),
		log.String("to", next.String()),
		log.String("reason", reason),
	)
	return nil
}

// Begin derives the context workers run under. Cancel ends it.
func (m *Manager) Begin(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	return ctx
}

// Cancel ends the context returned by Begin.
func (m *Manager) Cancel() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Go runs fn on a tracked goroutine.
func (m *Manager) Go(fn func()) {
	m.workers.Add(1)
	go func() {
		defer m.workers.Done()
		fn()
	}()
}

// Wait blocks until every goroutine started with Go has returned, or fails
// with domain.ErrShutdownTimeout after timeout. The goroutines keep running
// after a timeout.
func (m *Manager) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		m.workers.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		m.logger.Warn("workers still running after shutdown timeout",
			log.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
