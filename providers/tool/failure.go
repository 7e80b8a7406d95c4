package tool

import "errors"

// FailureKind classifies a tool execution failure so callers can decide
// between retrying and giving up. Tools declare the classification
// themselves via [Transient] and [Permanent]; nobody else is in a position
// to know whether a given failure might clear on retry.
type FailureKind string

const (
	// FailureTransient marks failures that may clear on retry: timeouts,
	// rate limits, 5xx responses.
	FailureTransient FailureKind = "transient"
	// FailurePermanent marks failures that will not clear on retry:
	// missing resources, authorization problems, malformed state.
	FailurePermanent FailureKind = "permanent"
)

// ExecError is a classified tool execution failure.
type ExecError struct {
	Kind FailureKind
	Err  error
}

func (e *ExecError) Error() string {
	return string(e.Kind) + " tool failure: " + e.Err.Error()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a transient [ExecError].
func Transient(err error) *ExecError {
	return &ExecError{Kind: FailureTransient, Err: err}
}

// Permanent wraps err as a permanent [ExecError].
func Permanent(err error) *ExecError {
	return &ExecError{Kind: FailurePermanent, Err: err}
}

// KindOf reports the classification of err. Errors that carry no ExecError
// anywhere in their chain are treated as permanent: failing fast and
// letting the reasoning step adapt beats guessing that an unknown failure
// is retryable.
func KindOf(err error) FailureKind {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return FailurePermanent
}
