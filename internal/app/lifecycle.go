package app

import (
	"sync"

	"github.com/bft-labs/tracesink/internal/domain"
	"github.com/bft-labs/tracesink/internal/ports"
)

// State represents the lifecycle state of a sink.
type State int

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Lifecycle manages the state machine of a sink.
// The only valid path is Open -> Closing -> Closed.
type Lifecycle struct {
	mu     sync.RWMutex
	state  State
	logger ports.Logger
}

// NewLifecycle creates a new lifecycle in StateOpen.
func NewLifecycle(logger ports.Logger) *Lifecycle {
	return &Lifecycle{
		state:  StateOpen,
		logger: logger,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to transition to a new state.
// Returns domain.ErrClosed if the transition is not valid.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	switch {
	case oldState == StateOpen && newState == StateClosing:
	case oldState == StateClosing && newState == StateClosed:
	default:
		l.mu.Unlock()
		return domain.ErrClosed
	}

	l.state = newState
	l.mu.Unlock()

	l.logger.Debug("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}
