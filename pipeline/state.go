package pipeline

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// State is the phase a provider attempt is in
type State string

const (
	StateReceived  State = "received"
	StateValidated State = "validated"
	StateAcquiring State = "acquiring"
	StateParsing   State = "parsing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// attemptPhases is the only forward path an attempt can take. Failed can be
// entered from any phase before Completed.
var attemptPhases = []State{StateReceived, StateValidated, StateAcquiring, StateParsing, StateCompleted}

// StateTransition records one state change
type StateTransition struct {
	From      State
	To        State
	Timestamp time.Time
	Metadata  map[string]any
}

// StateTracker follows one attempt through its phases
type StateTracker interface {
	Current() State
	Transition(to State, metadata map[string]any) error
	History() []StateTransition
	Duration(state State) time.Duration
}

// DefaultStateTracker keeps the history in memory
type DefaultStateTracker struct {
	mu      sync.RWMutex
	current State
	started time.Time
	history []StateTransition
}

// NewStateTracker starts a tracker in StateReceived
func NewStateTracker() *DefaultStateTracker {
	return &DefaultStateTracker{current: StateReceived, started: time.Now()}
}

func (t *DefaultStateTracker) Current() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Transition moves the attempt to the next phase or to Failed
func (t *DefaultStateTracker) Transition(to State, metadata map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !isValidTransition(t.current, to) {
		return fmt.Errorf("invalid state transition from %s to %s", t.current, to)
	}
	t.history = append(t.history, StateTransition{
		From:      t.current,
		To:        to,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	t.current = to
	return nil
}

func (t *DefaultStateTracker) History() []StateTransition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.history)
}

// Duration reports the time spent in state, up to now if the attempt is
// still there. States never entered report zero.
func (t *DefaultStateTracker) Duration(state State) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var entered time.Time
	if state == StateReceived {
		entered = t.started
	}
	for _, tr := range t.history {
		switch {
		case tr.To == state:
			entered = tr.Timestamp
		case tr.From == state && !entered.IsZero():
			return tr.Timestamp.Sub(entered)
		}
	}
	if entered.IsZero() || t.current != state {
		return 0
	}
	return time.Since(entered)
}

func isValidTransition(from, to State) bool {
	i := slices.Index(attemptPhases, from)
	if i < 0 || from == StateCompleted {
		return false
	}
	if to == StateFailed {
		return true
	}
	return attemptPhases[i+1] == to
}
