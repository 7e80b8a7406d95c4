package agent

import "encoding/json"

// Goal is the immutable task description a run tries to satisfy. It is
// created once at run start and never mutated; the runner only reads it.
type Goal struct {
	// Instructions tell the reasoning backend what the agent is and what a
	// good final answer looks like.
	Instructions string `json:"instructions"`
	// Input carries the structured task parameters, e.g.
	// {"owner": "acme", "repo": "widgets", "pr_number": 42}.
	Input map[string]any `json:"input,omitempty"`
}

// ActionRequest is a proposed tool invocation: which tool, with which
// arguments. Arguments are validated against the tool's input schema before
// dispatch; invalid requests never reach a tool's execution function.
type ActionRequest struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// FailureReason classifies why a dispatched action failed.
type FailureReason string

const (
	// ReasonUnknownTool: the requested tool name is not registered.
	ReasonUnknownTool FailureReason = "unknown_tool"
	// ReasonInvalidArguments: the arguments failed schema validation.
	ReasonInvalidArguments FailureReason = "invalid_arguments"
	// ReasonExecutionFailed: the tool ran and reported a failure.
	ReasonExecutionFailed FailureReason = "execution_failed"
	// ReasonToolPanicked: the tool implementation panicked; contained by
	// the dispatcher.
	ReasonToolPanicked FailureReason = "tool_panicked"
)

// ObservationError describes a failed action in terms the reasoning
// backend can act on.
type ObservationError struct {
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message"`
	// Transient reports whether the tool classified the failure as
	// retryable. Only meaningful for ReasonExecutionFailed.
	Transient bool `json:"transient,omitempty"`
	// Fields holds field-level validation detail for
	// ReasonInvalidArguments, one "path: problem" entry per violation.
	Fields []string `json:"fields,omitempty"`
}

// Observation is the recorded outcome of one dispatched action. Every
// dispatch produces exactly one, success or not; the loop never silently
// drops a step.
type Observation struct {
	Success bool              `json:"success"`
	Result  json.RawMessage   `json:"result,omitempty"`
	Error   *ObservationError `json:"error,omitempty"`
}

// Step records one loop cycle. A step holds either an action with its
// observation, or a final answer; a step with a non-empty FinalAnswer marks
// loop termination.
type Step struct {
	Thought     string          `json:"thought"`
	Confidence  float64         `json:"confidence,omitempty"`
	Action      *ActionRequest  `json:"action,omitempty"`
	Observation *Observation    `json:"observation,omitempty"`
	FinalAnswer json.RawMessage `json:"final_answer,omitempty"`
}

// Transcript is the ordered history of steps for one run. It is owned
// exclusively by the runner, append-only, and grows by exactly one step per
// loop iteration; the full history is replayed into every reasoning call.
type Transcript []Step
