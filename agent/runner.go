package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/reagent/providers/observability"
	"github.com/leofalp/reagent/providers/tool"
)

// Status is the terminal (or running) state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSuccess   Status = "terminated_success"
	StatusMaxSteps  Status = "terminated_max_steps"
	StatusFatal     Status = "terminated_fatal_error"
	StatusCancelled Status = "terminated_cancelled"
)

// DefaultMaxSteps bounds a run when no explicit budget is configured.
const DefaultMaxSteps = 15

// Result is the outcome of a run. It always carries the full transcript,
// whatever the terminal status; a run never ends in silent truncation.
type Result struct {
	RunID       string          `json:"run_id"`
	Status      Status          `json:"status"`
	FinalAnswer json.RawMessage `json:"final_answer,omitempty"`
	Transcript  Transcript      `json:"transcript"`
}

// Runner drives the ReAct loop to termination. Construct with [NewRunner];
// a runner is stateless across runs and safe to reuse, including from
// concurrent goroutines.
type Runner struct {
	reasoner   Reasoner
	dispatcher *Dispatcher
	maxSteps   int
	trace      observability.Sink
}

type runnerOptions struct {
	maxSteps int
	trace    observability.Sink
}

// RunnerOption configures a [Runner] at construction time.
type RunnerOption func(*runnerOptions)

// WithMaxSteps sets the iteration budget. Values below one fall back to
// [DefaultMaxSteps].
func WithMaxSteps(maxSteps int) RunnerOption {
	return func(o *runnerOptions) {
		o.maxSteps = maxSteps
	}
}

// WithTraceSink sets the observability sink receiving trace events.
// Defaults to [observability.NopSink]; sink errors are ignored either way.
func WithTraceSink(sink observability.Sink) RunnerOption {
	return func(o *runnerOptions) {
		o.trace = sink
	}
}

// NewRunner constructs a Runner over the given reasoner and tool registry.
func NewRunner(reasoner Reasoner, registry *tool.Registry, options ...RunnerOption) (*Runner, error) {
	if reasoner == nil {
		return nil, errors.New("reasoner is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}

	configured := runnerOptions{maxSteps: DefaultMaxSteps, trace: observability.NopSink{}}
	for _, option := range options {
		option(&configured)
	}
	if configured.maxSteps < 1 {
		configured.maxSteps = DefaultMaxSteps
	}
	if configured.trace == nil {
		configured.trace = observability.NopSink{}
	}

	return &Runner{
		reasoner:   reasoner,
		dispatcher: NewDispatcher(registry),
		maxSteps:   configured.maxSteps,
		trace:      configured.trace,
	}, nil
}

// Run executes the loop until a final answer, the step budget, a fatal
// reasoning error, or cancellation.
//
// Per iteration: check cancellation, one reasoning call, at most one
// dispatch, exactly one step appended to the transcript. The returned
// Result is non-nil in every case. The error is non-nil only for the two
// escalating outcomes, fatal reasoning failure and cancellation; running
// out of steps is an expected terminal state, not an error.
func (r *Runner) Run(ctx context.Context, goal Goal) (*Result, error) {
	result := &Result{RunID: uuid.NewString(), Status: StatusRunning}
	r.emit(ctx, observability.TraceEvent{
		RunID:  result.RunID,
		Type:   observability.EventRunStarted,
		Detail: goal.Instructions,
	})

	for step := 1; step <= r.maxSteps; step++ {
		// Cancellation is cooperative and only honoured here, between
		// iterations, never mid-dispatch.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return r.terminate(ctx, result, step, StatusCancelled), ctxErr
		}

		reasoning, err := r.reasoner.Reason(ctx, goal, result.Transcript)
		if err != nil {
			return r.terminate(ctx, result, step, StatusFatal), fmt.Errorf("%w: %w", ErrReasoningFailed, err)
		}
		if err := reasoning.checkContract(); err != nil {
			return r.terminate(ctx, result, step, StatusFatal), err
		}

		r.emit(ctx, observability.TraceEvent{
			RunID:      result.RunID,
			Step:       step,
			Type:       observability.EventThoughtProduced,
			Thought:    reasoning.Thought,
			Confidence: reasoning.Confidence,
		})

		if len(reasoning.FinalAnswer) > 0 {
			result.Transcript = append(result.Transcript, Step{
				Thought:     reasoning.Thought,
				Confidence:  reasoning.Confidence,
				FinalAnswer: reasoning.FinalAnswer,
			})
			result.FinalAnswer = reasoning.FinalAnswer
			return r.terminate(ctx, result, step, StatusSuccess), nil
		}

		r.emit(ctx, observability.TraceEvent{
			RunID:     result.RunID,
			Step:      step,
			Type:      observability.EventActionDispatched,
			ToolName:  reasoning.Action.ToolName,
			Arguments: reasoning.Action.Arguments,
		})

		observation := r.dispatcher.Dispatch(ctx, *reasoning.Action)

		r.emit(ctx, observability.TraceEvent{
			RunID:    result.RunID,
			Step:     step,
			Type:     observability.EventObservationReceived,
			ToolName: reasoning.Action.ToolName,
			Success:  observation.Success,
			Detail:   observationDetail(observation),
		})

		result.Transcript = append(result.Transcript, Step{
			Thought:     reasoning.Thought,
			Confidence:  reasoning.Confidence,
			Action:      reasoning.Action,
			Observation: &observation,
		})
	}

	return r.terminate(ctx, result, r.maxSteps, StatusMaxSteps), nil
}

func (r *Runner) terminate(ctx context.Context, result *Result, step int, status Status) *Result {
	result.Status = status
	r.emit(ctx, observability.TraceEvent{
		RunID:  result.RunID,
		Step:   step,
		Type:   observability.EventRunTerminated,
		Detail: string(status),
	})
	return result
}

// emit sends a trace event, stamping the time and ignoring sink errors:
// observability must never affect loop correctness.
func (r *Runner) emit(ctx context.Context, event observability.TraceEvent) {
	event.Time = time.Now()
	_ = r.trace.Emit(ctx, event)
}

func observationDetail(observation Observation) string {
	if observation.Success {
		return string(observation.Result)
	}
	return observation.Error.Message
}
