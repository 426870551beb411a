package review

import (
	"fmt"
	"sync"
	"time"
)

// Event triggers review state transitions. The interface is sealed: only
// event types in this package can drive the machine, which keeps the event
// union closed and exhaustively matchable.
type Event interface {
	reviewEventMarker()

	// Name returns the event name recorded in the transition history.
	Name() string
}

// Event types for the review lifecycle.
type (
	// PreAnalyzedEvent fires when the deterministic analysis completes.
	PreAnalyzedEvent struct {
		// Degraded lists analyzer stages that failed on this input.
		Degraded []string
	}

	// ContextBuiltEvent fires when the prompt context is rendered
	// (full path only).
	ContextBuiltEvent struct{}

	// AIReviewedEvent fires when the AI response is parsed.
	AIReviewedEvent struct {
		// Partial marks a response that parsed with warnings.
		Partial bool
	}

	// MergedEvent fires when the merger produced the final issue list.
	MergedEvent struct {
		Score int
	}

	// CompletedEvent fires when the final review aggregate is built.
	CompletedEvent struct{}

	// FailedEvent aborts the review from any non-terminal state.
	FailedEvent struct {
		Class  FailureClass
		Reason string
	}
)

func (PreAnalyzedEvent) reviewEventMarker()  {}
func (ContextBuiltEvent) reviewEventMarker() {}
func (AIReviewedEvent) reviewEventMarker()   {}
func (MergedEvent) reviewEventMarker()       {}
func (CompletedEvent) reviewEventMarker()    {}
func (FailedEvent) reviewEventMarker()       {}

func (PreAnalyzedEvent) Name() string  { return "pre_analyzed" }
func (ContextBuiltEvent) Name() string { return "context_built" }
func (AIReviewedEvent) Name() string   { return "ai_reviewed" }
func (MergedEvent) Name() string       { return "merged" }
func (CompletedEvent) Name() string    { return "completed" }
func (FailedEvent) Name() string       { return "failed" }

// Machine drives one review through its lifecycle with guarded transitions
// and an append-only history. The valid paths are:
//
//	received -> pre_analyzed -> merged -> done            (quick)
//	received -> pre_analyzed -> context_built ->
//	            ai_reviewed -> merged -> done             (full)
//
// plus pre_analyzed -> merged on the full path when the AI stage degrades
// to quick-path scoring, and failed reachable from every non-terminal
// state.
type Machine struct {
	mu sync.Mutex

	current State
	history []StateTransition
}

// NewMachine creates a machine in the received state.
func NewMachine() *Machine {
	return &Machine{current: StateReceived}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// History returns a copy of the transition history.
func (m *Machine) History() []StateTransition {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]StateTransition, len(m.history))
	copy(history, m.history)
	return history
}

// Apply processes an event, returning the new state or
// ErrInvalidTransition when the current state does not accept the event.
func (m *Machine) Apply(event Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.nextState(event)
	if err != nil {
		return m.current, err
	}

	m.history = append(m.history, StateTransition{
		From:  m.current,
		To:    next,
		Event: event.Name(),
		At:    time.Now().UTC(),
	})
	m.current = next

	return next, nil
}

// nextState returns the target state for an event, guarding against
// out-of-order events. Callers hold the mutex.
func (m *Machine) nextState(event Event) (State, error) {
	// Failure is accepted from any non-terminal state.
	if _, ok := event.(FailedEvent); ok {
		if m.current.IsTerminal() {
			return "", fmt.Errorf(
				"%w: %s event in terminal state %s",
				ErrInvalidTransition, event.Name(), m.current,
			)
		}
		return StateFailed, nil
	}

	allowed := map[State]map[string]State{
		StateReceived: {
			(PreAnalyzedEvent{}).Name(): StatePreAnalyzed,
		},
		StatePreAnalyzed: {
			(ContextBuiltEvent{}).Name(): StateContextBuilt,
			// Quick path and AI-skipped degradation merge
			// directly from pre_analyzed.
			(MergedEvent{}).Name(): StateMerged,
		},
		StateContextBuilt: {
			(AIReviewedEvent{}).Name(): StateAIReviewed,
			// Merging straight past ai_reviewed happens when the
			// response was unusable but the review continues
			// with pre-analysis data only.
			(MergedEvent{}).Name(): StateMerged,
		},
		StateAIReviewed: {
			(MergedEvent{}).Name(): StateMerged,
		},
		StateMerged: {
			(CompletedEvent{}).Name(): StateDone,
		},
	}

	if next, ok := allowed[m.current][event.Name()]; ok {
		return next, nil
	}

	return "", fmt.Errorf("%w: %s event in state %s",
		ErrInvalidTransition, event.Name(), m.current)
}
