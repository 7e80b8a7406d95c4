package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// Reasoning is one reasoning step's output: the thought, and exactly one of
// a proposed action or a final answer.
type Reasoning struct {
	Thought string
	// Confidence is the backend's self-reported confidence in the thought,
	// in [0, 1]. Surfaced through trace events; the loop never branches
	// on it.
	Confidence  float64
	Action      *ActionRequest
	FinalAnswer json.RawMessage
}

// Reasoner produces the next reasoning step from the goal and the
// transcript so far.
//
// Implementations must be pure from the loop's perspective: no state
// retained between calls except what is reconstructed from the transcript,
// which keeps runs replayable. Each call must yield exactly one
// ActionRequest or exactly one FinalAnswer, never both, never neither;
// the runner treats a violation as [ErrMalformedReasoning] and kills the
// run.
type Reasoner interface {
	Reason(ctx context.Context, goal Goal, transcript Transcript) (Reasoning, error)
}

// checkContract enforces the exactly-one-of rule on a reasoning result.
func (r Reasoning) checkContract() error {
	hasAction := r.Action != nil
	hasAnswer := len(r.FinalAnswer) > 0
	switch {
	case hasAction && hasAnswer:
		return fmt.Errorf("%w: returned both an action (%q) and a final answer", ErrMalformedReasoning, r.Action.ToolName)
	case !hasAction && !hasAnswer:
		return fmt.Errorf("%w: returned neither an action nor a final answer", ErrMalformedReasoning)
	default:
		return nil
	}
}
