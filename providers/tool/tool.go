package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leofalp/reagent/core/parse"
	"github.com/leofalp/reagent/internal/jsonschema"
)

// Description is the metadata a tool advertises to the reasoning backend:
// its name, what it does, and the schema its arguments must satisfy.
type Description struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// GenericTool is the provider-agnostic interface for all tools. It abstracts
// over the concrete generic type parameters of [Tool] so tools can be
// registered, dispatched, and introspected without knowing their exact
// input/output types.
type GenericTool interface {
	// ToolInfo returns the metadata used to advertise this tool to the
	// reasoning backend and to validate arguments before dispatch.
	ToolInfo() Description

	// Call invokes the tool with a JSON-encoded input string and returns a
	// JSON-encoded output string. The caller is expected to have validated
	// the input against ToolInfo().Parameters already; Call may assume
	// well-typed input. Failures are returned as [ExecError] values so the
	// dispatcher can record the transient/permanent classification.
	Call(ctx context.Context, inputJSON string) (string, error)
}

// Tool binds a name and description to a strongly-typed Go function, with
// JSON schemas for the input (I) and output (O) derived via reflection.
// Use [NewTool] to construct one.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Output      *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
}

type funcToolOptions struct {
	Description string
}

// WithDescription sets a human-readable description for the tool. The
// reasoning backend sees this description when deciding which tool to
// invoke, so write it for the model, not for godoc.
func WithDescription(description string) func(*funcToolOptions) {
	return func(o *funcToolOptions) {
		o.Description = description
	}
}

// NewTool constructs a [Tool] with the given name and handler function.
//
// Example:
//
//	prTool := tool.NewTool("fetch_pr", githubpr.Fetch,
//	    tool.WithDescription("Fetches metadata and the diff of a GitHub pull request."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...func(*funcToolOptions)) *Tool[I, O] {
	toolOptions := &funcToolOptions{}
	for _, option := range options {
		option(toolOptions)
	}

	return &Tool[I, O]{
		Name:        name,
		Description: toolOptions.Description,
		Parameters:  jsonschema.GenerateJSONSchema[I](),
		Output:      jsonschema.GenerateJSONSchema[O](),
		Function:    function,
	}
}

// ToolInfo returns the [Description] advertised for this tool.
func (t *Tool[I, O]) ToolInfo() Description {
	return Description{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call deserializes inputJSON into the tool's input type, executes the
// function, and returns the result serialized as JSON.
//
// A failed input parse is reported as a permanent failure: the dispatcher
// validated the arguments against the schema before calling, so a parse
// error here means the schema and the input type disagree, and retrying
// cannot fix that. Function errors pass through unchanged, preserving any
// [ExecError] classification the tool assigned.
func (t *Tool[I, O]) Call(ctx context.Context, inputJSON string) (string, error) {
	parsedInput, err := parse.ParseStringAs[I](inputJSON)
	if err != nil {
		return "", Permanent(fmt.Errorf("parsing input for tool %q: %w", t.Name, err))
	}

	output, err := t.Function(ctx, parsedInput)
	if err != nil {
		return "", err
	}

	outputBytes, err := json.Marshal(output)
	if err != nil {
		return "", Permanent(fmt.Errorf("marshaling output of tool %q: %w", t.Name, err))
	}
	return string(outputBytes), nil
}
