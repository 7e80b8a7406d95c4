// Package observability defines the trace-event side channel of the agent
// loop.
//
// The runner emits one TraceEvent per transition (thought produced, action
// dispatched, observation received, run terminated) to a Sink. Events flow
// one way: the loop never reads them back, and a missing or failing sink
// never affects loop correctness. Implementations live in subpackages
// (slogtrace renders events through log/slog).
package observability

import (
	"context"
	"time"
)

// EventType names a loop transition.
type EventType string

const (
	EventRunStarted          EventType = "run_started"
	EventThoughtProduced     EventType = "thought_produced"
	EventActionDispatched    EventType = "action_dispatched"
	EventObservationReceived EventType = "observation_received"
	EventRunTerminated       EventType = "run_terminated"
)

// TraceEvent is one observability record. Only the fields relevant to the
// event type are populated.
type TraceEvent struct {
	RunID string
	Step  int
	Type  EventType
	Time  time.Time

	// EventThoughtProduced
	Thought    string
	Confidence float64

	// EventActionDispatched
	ToolName  string
	Arguments map[string]any

	// EventObservationReceived
	Success bool

	// Detail carries free text: observation previews, error descriptions,
	// or the terminal status for EventRunTerminated.
	Detail string
}

// Sink receives trace events. Emit is fire-and-forget from the loop's
// perspective: the runner ignores returned errors, so implementations
// should not rely on backpressure. Emit may be called from concurrently
// executing runs and must be safe for that.
type Sink interface {
	Emit(ctx context.Context, event TraceEvent) error
}

// NopSink drops every event. It is the default sink when none is
// configured.
type NopSink struct{}

func (NopSink) Emit(context.Context, TraceEvent) error { return nil }
