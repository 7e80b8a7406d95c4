package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/reagent/agent"
	"github.com/leofalp/reagent/core/parse"
	"github.com/leofalp/reagent/internal/utils"
	"github.com/leofalp/reagent/providers/tool"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
	defaultModel            = "gpt-4o-mini"
)

// Reasoner implements [agent.Reasoner] over the chat completions API.
type Reasoner struct {
	apiKey   string
	baseURL  string
	model    string
	client   *http.Client
	registry *tool.Registry
}

// NewReasoner creates a reasoner reading OPENAI_API_KEY, OPENAI_API_BASE_URL
// and OPENAI_MODEL from the environment as defaults. Tool descriptions are
// read from the registry on every call, so tools registered or replaced
// after construction are picked up.
func NewReasoner(registry *tool.Registry) *Reasoner {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultModel
	}

	return &Reasoner{
		apiKey:   os.Getenv("OPENAI_API_KEY"),
		baseURL:  baseURL,
		model:    model,
		client:   &http.Client{},
		registry: registry,
	}
}

// WithAPIKey sets the API key.
func (r *Reasoner) WithAPIKey(apiKey string) *Reasoner {
	r.apiKey = apiKey
	return r
}

// WithBaseURL sets the API base URL.
func (r *Reasoner) WithBaseURL(baseURL string) *Reasoner {
	r.baseURL = baseURL
	return r
}

// WithModel sets the model name.
func (r *Reasoner) WithModel(model string) *Reasoner {
	r.model = model
	return r
}

// WithHttpClient sets a custom HTTP client.
func (r *Reasoner) WithHttpClient(client *http.Client) *Reasoner {
	r.client = client
	return r
}

// Reason sends the goal and transcript to the model and converts its
// structured decision into an [agent.Reasoning].
func (r *Reasoner) Reason(ctx context.Context, goal agent.Goal, transcript agent.Transcript) (agent.Reasoning, error) {
	if r.apiKey == "" {
		return agent.Reasoning{}, fmt.Errorf("API key is not set")
	}

	request := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: r.systemPrompt()},
			{Role: "user", Content: userPrompt(goal, transcript)},
		},
		Temperature:    0,
		ResponseFormat: &formatSpec{Type: "json_object"},
	}

	response, err := utils.DoPostSync[chatResponse](ctx, r.client, r.baseURL+chatCompletionsEndpoint, r.apiKey, request)
	if err != nil {
		return agent.Reasoning{}, err
	}
	if len(response.Choices) == 0 {
		return agent.Reasoning{}, fmt.Errorf("no choices in response")
	}

	content := response.Choices[0].Message.Content
	parsed, err := parse.ParseStringAs[decision](content)
	if err != nil {
		return agent.Reasoning{}, fmt.Errorf("%w: unparseable decision: %w", agent.ErrMalformedReasoning, err)
	}

	return parsed.toReasoning()
}

// toReasoning maps the model's decision onto the reasoning contract.
// Contract violations surface as [agent.ErrMalformedReasoning] so the
// runner terminates the run instead of looping on a broken backend.
func (d decision) toReasoning() (agent.Reasoning, error) {
	reasoning := agent.Reasoning{Thought: d.Thought, Confidence: d.Confidence}

	switch d.ActionType {
	case actionUseTool:
		if d.ToolName == "" {
			return agent.Reasoning{}, fmt.Errorf("%w: use_tool decision without a tool name", agent.ErrMalformedReasoning)
		}
		reasoning.Action = &agent.ActionRequest{ToolName: d.ToolName, Arguments: d.ToolParams}
	case actionFinish:
		if d.FinalAnswer == nil {
			return agent.Reasoning{}, fmt.Errorf("%w: finish decision without a final answer", agent.ErrMalformedReasoning)
		}
		answer, err := json.Marshal(d.FinalAnswer)
		if err != nil {
			return agent.Reasoning{}, fmt.Errorf("%w: final answer is not serializable: %w", agent.ErrMalformedReasoning, err)
		}
		reasoning.FinalAnswer = answer
	default:
		return agent.Reasoning{}, fmt.Errorf("%w: unknown action type %q", agent.ErrMalformedReasoning, d.ActionType)
	}

	return reasoning, nil
}

// systemPrompt describes the decision format and the currently registered
// tools.
func (r *Reasoner) systemPrompt() string {
	var builder strings.Builder
	builder.WriteString(`You are the reasoning engine of a tool-using agent. At each step, examine the goal and the step history, then decide on exactly one of:
- invoking a tool: set "action_type" to "use_tool", name the tool in "tool_name" and put its arguments in "tool_params"
- finishing: set "action_type" to "finish" and put the complete answer in "final_answer"

Always respond with a single JSON object of this shape:
{"thought": "your reasoning about the current state", "confidence": 0.0 to 1.0, "action_type": "use_tool" or "finish", "tool_name": "...", "tool_params": {...}, "final_answer": {...}}

Failed tool results appear in the history with the failure reason; adapt instead of repeating the same failing call. Finish as soon as you have enough information.

Available tools:
`)

	for _, description := range r.registry.Descriptions() {
		builder.WriteString("- ")
		builder.WriteString(description.Name)
		builder.WriteString(": ")
		builder.WriteString(description.Description)
		if description.Parameters != nil {
			if schemaJSON, err := json.Marshal(description.Parameters); err == nil {
				builder.WriteString("\n  input schema: ")
				builder.Write(schemaJSON)
			}
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

// userPrompt serializes the goal and the transcript so far.
func userPrompt(goal agent.Goal, transcript agent.Transcript) string {
	var builder strings.Builder
	builder.WriteString("Goal: ")
	builder.WriteString(goal.Instructions)
	builder.WriteString("\n")

	if len(goal.Input) > 0 {
		if inputJSON, err := json.MarshalIndent(goal.Input, "", "  "); err == nil {
			builder.WriteString("Input:\n")
			builder.Write(inputJSON)
			builder.WriteString("\n")
		}
	}

	if len(transcript) == 0 {
		builder.WriteString("\nNo steps taken yet. Decide the first step.")
		return builder.String()
	}

	builder.WriteString("\nSteps so far:\n")
	for i, step := range transcript {
		stepJSON, err := json.MarshalIndent(step, "", "  ")
		if err != nil {
			stepJSON = []byte(fmt.Sprintf("%+v", step))
		}
		builder.WriteString(fmt.Sprintf("Step %d:\n%s\n", i+1, stepJSON))
	}
	builder.WriteString("\nDecide the next step.")

	return builder.String()
}
