package agent

import "errors"

var (
	// ErrMalformedReasoning marks a reasoning backend that violated its
	// output contract (both an action and a final answer, or neither).
	// It is fatal to the run: a broken backend is not a transient fault.
	ErrMalformedReasoning = errors.New("reasoning backend violated its output contract")

	// ErrReasoningFailed wraps a reasoning backend call that returned an
	// error. Also fatal: the loop cannot make progress without a reasoner,
	// and the runner never retries (see package doc).
	ErrReasoningFailed = errors.New("reasoning backend call failed")
)
