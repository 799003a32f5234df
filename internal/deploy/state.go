package deploy

import (
	"context"
	"fmt"
	"time"
)

// State is the lifecycle position of a run.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateCompleted
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Status is a State plus the step it refers to. StepIndex is -1 before the
// first step starts.
type Status struct {
	State     State
	StepIndex int
}

func (s Status) String() string {
	if s.State == StateRunning || s.State == StateFailed {
		return fmt.Sprintf("%s(%d)", s.State, s.StepIndex)
	}
	return s.State.String()
}

// advance moves the status forward. Backward moves, leaving a terminal state,
// and revisiting an earlier step are rejected.
func (s Status) advance(next State, stepIndex int) (Status, error) {
	switch {
	case s.State.Terminal():
		return s, fmt.Errorf("deploy: run already %s", s.State)
	case next < s.State:
		return s, fmt.Errorf("deploy: cannot move from %s to %s", s.State, next)
	case next == StateNotStarted:
		return s, fmt.Errorf("deploy: cannot restart a run")
	case stepIndex < s.StepIndex:
		return s, fmt.Errorf("deploy: cannot move back from step %d to %d", s.StepIndex, stepIndex)
	}
	return Status{State: next, StepIndex: stepIndex}, nil
}

// EventKind identifies what happened in a run.
type EventKind string

const (
	EventRunStarted    EventKind = "run_started"
	EventStepStarted   EventKind = "step_started"
	EventStepCompleted EventKind = "step_completed"
	EventStepFailed    EventKind = "step_failed"
	EventRunCompleted  EventKind = "run_completed"
	EventRunFailed     EventKind = "run_failed"
)

// Event reports progress of a run to observers.
type Event struct {
	Kind    EventKind
	RunID   string
	Network string
	Status  Status
	// Total is the number of steps in the plan.
	Total int
	// Step is set for step events.
	Step *Step
	// Entry is set for EventStepCompleted.
	Entry *Entry
	// Err is set for failure events.
	Err error
	At  time.Time
}

// Observer is called synchronously for every run event. Observers see the
// run but cannot influence it: a slow observer delays the run and a
// panicking one aborts it, so keep them cheap.
type Observer func(ctx context.Context, ev Event)
