package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leofalp/reagent/internal/jsonschema"
	"github.com/leofalp/reagent/providers/tool"
)

// Dispatcher validates proposed actions against the registry and the
// target tool's input schema, invokes the tool, and captures the outcome
// as an [Observation].
//
// Dispatch never lets anything escape past its boundary: unknown tools,
// invalid arguments, tool-reported failures, and even panics inside a tool
// all become failed observations. That is what keeps the runner's
// one-step-per-iteration invariant unconditional.
type Dispatcher struct {
	registry *tool.Registry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *tool.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch executes one action request and returns its observation.
//
// The algorithm is lookup, validate, execute:
//  1. unknown tool name => failed observation, ReasonUnknownTool
//  2. arguments failing the tool's input schema => failed observation,
//     ReasonInvalidArguments with field-level detail; the tool's execute
//     function is never called
//  3. execution failure => failed observation carrying the tool-declared
//     transient/permanent classification
func (d *Dispatcher) Dispatch(ctx context.Context, request ActionRequest) Observation {
	handle, err := d.registry.Lookup(request.ToolName)
	if err != nil {
		return failedObservation(ReasonUnknownTool, err.Error(), false, nil)
	}

	// An omitted arguments object means "no arguments", not a null value.
	if request.Arguments == nil {
		request.Arguments = map[string]any{}
	}

	if err := jsonschema.Validate(handle.ToolInfo().Parameters, request.Arguments); err != nil {
		var validationErr *jsonschema.ValidationError
		var fields []string
		if errors.As(err, &validationErr) {
			fields = make([]string, len(validationErr.Fields))
			for i, fieldErr := range validationErr.Fields {
				fields[i] = fieldErr.Error()
			}
		}
		return failedObservation(ReasonInvalidArguments, err.Error(), false, fields)
	}

	argumentsJSON, err := json.Marshal(request.Arguments)
	if err != nil {
		return failedObservation(ReasonInvalidArguments, fmt.Sprintf("arguments are not serializable: %v", err), false, nil)
	}

	output, err := d.safeCall(ctx, handle, string(argumentsJSON))
	if err != nil {
		reason := ReasonExecutionFailed
		if errors.Is(err, errToolPanic) {
			reason = ReasonToolPanicked
		}
		return failedObservation(reason, err.Error(), tool.KindOf(err) == tool.FailureTransient, nil)
	}

	return Observation{Success: true, Result: json.RawMessage(output)}
}

var errToolPanic = errors.New("tool panicked")

// safeCall invokes the tool and converts panics into errors so programming
// mistakes inside a tool degrade into a failed observation instead of
// tearing down the run.
func (d *Dispatcher) safeCall(ctx context.Context, handle tool.GenericTool, argumentsJSON string) (output string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", errToolPanic, recovered)
		}
	}()
	return handle.Call(ctx, argumentsJSON)
}

func failedObservation(reason FailureReason, message string, transient bool, fields []string) Observation {
	return Observation{
		Success: false,
		Error: &ObservationError{
			Reason:    reason,
			Message:   message,
			Transient: transient,
			Fields:    fields,
		},
	}
}
