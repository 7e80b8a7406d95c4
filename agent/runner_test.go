package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/leofalp/reagent/providers/observability"
	"github.com/leofalp/reagent/providers/tool"
)

// scriptedReasoner replays a fixed reasoning script, selecting the entry by
// transcript length. It is a pure function of its inputs, like the real
// contract demands, so runs driven by it are deterministic and replayable.
type scriptedReasoner struct {
	script []Reasoning
	err    error
}

func (s *scriptedReasoner) Reason(_ context.Context, _ Goal, transcript Transcript) (Reasoning, error) {
	if s.err != nil {
		return Reasoning{}, s.err
	}
	index := len(transcript)
	if index >= len(s.script) {
		index = len(s.script) - 1
	}
	return s.script[index], nil
}

// collectingSink records every trace event for assertions.
type collectingSink struct {
	mu     sync.Mutex
	events []observability.TraceEvent
}

func (c *collectingSink) Emit(_ context.Context, event observability.TraceEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *collectingSink) types() []observability.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]observability.EventType, len(c.events))
	for i, event := range c.events {
		types[i] = event.Type
	}
	return types
}

type fetchPRInput struct {
	Owner  string `json:"owner" jsonschema:"required"`
	Repo   string `json:"repo" jsonschema:"required"`
	Number int    `json:"number" jsonschema:"required"`
}

type fetchPROutput struct {
	Title string `json:"title"`
	Diff  string `json:"diff"`
}

func fetchPRStub() tool.GenericTool {
	return tool.NewTool("fetch_pr", func(_ context.Context, input fetchPRInput) (fetchPROutput, error) {
		return fetchPROutput{
			Title: fmt.Sprintf("%s/%s#%d", input.Owner, input.Repo, input.Number),
			Diff:  "+1 -1",
		}, nil
	})
}

func fetchAction() *ActionRequest {
	return &ActionRequest{
		ToolName:  "fetch_pr",
		Arguments: map[string]any{"owner": "acme", "repo": "widgets", "number": 42},
	}
}

func mustRunner(t *testing.T, reasoner Reasoner, registry *tool.Registry, options ...RunnerOption) *Runner {
	t.Helper()
	runner, err := NewRunner(reasoner, registry, options...)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return runner
}

// TestRunner_SuccessScenario is the canonical two-step review run: fetch
// the PR, then answer "LGTM".
func TestRunner_SuccessScenario(t *testing.T) {
	registry, _ := tool.NewRegistry(fetchPRStub())
	reasoner := &scriptedReasoner{script: []Reasoning{
		{Thought: "I need the diff first", Confidence: 0.6, Action: fetchAction()},
		{Thought: "The change is fine", Confidence: 0.9, FinalAnswer: json.RawMessage(`"LGTM"`)},
	}}
	sink := &collectingSink{}
	runner := mustRunner(t, reasoner, registry, WithMaxSteps(10), WithTraceSink(sink))

	result, err := runner.Run(context.Background(), Goal{Instructions: "review PR 42 of acme/widgets"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("expected %s, got %s", StatusSuccess, result.Status)
	}
	if len(result.Transcript) != 2 {
		t.Fatalf("expected transcript length 2, got %d", len(result.Transcript))
	}
	if string(result.FinalAnswer) != `"LGTM"` {
		t.Errorf("unexpected final answer %s", result.FinalAnswer)
	}

	first := result.Transcript[0]
	if first.Action == nil || first.Observation == nil || !first.Observation.Success {
		t.Fatalf("step 1 must hold a successful action observation, got %+v", first)
	}
	var output fetchPROutput
	if err := json.Unmarshal(first.Observation.Result, &output); err != nil {
		t.Fatalf("observation result is not the tool output: %v", err)
	}
	if output.Title != "acme/widgets#42" {
		t.Errorf("unexpected tool output %+v", output)
	}
	if result.Transcript[1].FinalAnswer == nil || result.Transcript[1].Action != nil {
		t.Errorf("step 2 must be the final answer step, got %+v", result.Transcript[1])
	}

	want := []observability.EventType{
		observability.EventRunStarted,
		observability.EventThoughtProduced,
		observability.EventActionDispatched,
		observability.EventObservationReceived,
		observability.EventThoughtProduced,
		observability.EventRunTerminated,
	}
	got := sink.types()
	if len(got) != len(want) {
		t.Fatalf("expected %d trace events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("trace event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// TestRunner_MaxSteps: a reasoner that never finishes terminates at exactly
// the configured budget, and that is not an error.
func TestRunner_MaxSteps(t *testing.T) {
	registry, _ := tool.NewRegistry(fetchPRStub())
	reasoner := &scriptedReasoner{script: []Reasoning{
		{Thought: "fetch again", Action: fetchAction()},
	}}
	runner := mustRunner(t, reasoner, registry, WithMaxSteps(5))

	result, err := runner.Run(context.Background(), Goal{Instructions: "loop forever"})
	if err != nil {
		t.Fatalf("max steps must not be an error, got %v", err)
	}
	if result.Status != StatusMaxSteps {
		t.Fatalf("expected %s, got %s", StatusMaxSteps, result.Status)
	}
	if len(result.Transcript) != 5 {
		t.Errorf("expected transcript length exactly 5, got %d", len(result.Transcript))
	}
	if result.FinalAnswer != nil {
		t.Error("a max-steps run must not carry a final answer")
	}
}

// TestRunner_FailingToolStillTerminates: permanent tool failures come back
// as failed observations and the reasoner gets to adapt; here it gives up
// with an answer describing the failure.
func TestRunner_FailingToolStillTerminates(t *testing.T) {
	broken := tool.NewTool("fetch_pr", func(_ context.Context, _ fetchPRInput) (fetchPROutput, error) {
		return fetchPROutput{}, tool.Permanent(errors.New("PR not found: acme/widgets#42"))
	})
	registry, _ := tool.NewRegistry(broken)
	reasoner := &scriptedReasoner{script: []Reasoning{
		{Thought: "try the fetch", Action: fetchAction()},
		{Thought: "tool says the PR is gone", FinalAnswer: json.RawMessage(`"could not review: PR not found"`)},
	}}
	runner := mustRunner(t, reasoner, registry, WithMaxSteps(5))

	result, err := runner.Run(context.Background(), Goal{Instructions: "review"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("expected %s, got %s", StatusSuccess, result.Status)
	}

	observation := result.Transcript[0].Observation
	if observation.Success {
		t.Fatal("expected a failed observation")
	}
	if observation.Error.Reason != ReasonExecutionFailed {
		t.Errorf("expected %s, got %s", ReasonExecutionFailed, observation.Error.Reason)
	}
	if observation.Error.Transient {
		t.Error("permanent failure must not be marked transient")
	}
}

// TestRunner_UnknownToolContinues: an unregistered tool name produces a
// failed observation, not a fatal error, and the run goes on.
func TestRunner_UnknownToolContinues(t *testing.T) {
	registry, _ := tool.NewRegistry(fetchPRStub())
	reasoner := &scriptedReasoner{script: []Reasoning{
		{Thought: "try a tool that does not exist", Action: &ActionRequest{ToolName: "summon_reviewer"}},
		{Thought: "fall back to fetching", Action: fetchAction()},
		{Thought: "done", FinalAnswer: json.RawMessage(`"LGTM"`)},
	}}
	runner := mustRunner(t, reasoner, registry, WithMaxSteps(5))

	result, err := runner.Run(context.Background(), Goal{Instructions: "review"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("expected recovery to %s, got %s", StatusSuccess, result.Status)
	}

	first := result.Transcript[0].Observation
	if first.Success || first.Error.Reason != ReasonUnknownTool {
		t.Errorf("expected unknown_tool observation, got %+v", first)
	}
	if !result.Transcript[1].Observation.Success {
		t.Errorf("second step should have succeeded, got %+v", result.Transcript[1].Observation)
	}
}

// TestRunner_MalformedReasoning: both-and-neither violations are fatal.
func TestRunner_MalformedReasoning(t *testing.T) {
	tests := []struct {
		name   string
		output Reasoning
	}{
		{"both action and answer", Reasoning{
			Thought:     "confused",
			Action:      fetchAction(),
			FinalAnswer: json.RawMessage(`"LGTM"`),
		}},
		{"neither action nor answer", Reasoning{Thought: "stuck"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			registry, _ := tool.NewRegistry(fetchPRStub())
			runner := mustRunner(t, &scriptedReasoner{script: []Reasoning{tc.output}}, registry)

			result, err := runner.Run(context.Background(), Goal{Instructions: "review"})
			if !errors.Is(err, ErrMalformedReasoning) {
				t.Fatalf("expected ErrMalformedReasoning, got %v", err)
			}
			if result == nil || result.Status != StatusFatal {
				t.Fatalf("expected %s with transcript attached, got %+v", StatusFatal, result)
			}
		})
	}
}

// TestRunner_ReasonerError: a failing backend call is fatal and the partial
// transcript is still returned for diagnosis.
func TestRunner_ReasonerError(t *testing.T) {
	registry, _ := tool.NewRegistry(fetchPRStub())
	runner := mustRunner(t, &scriptedReasoner{err: errors.New("backend unreachable")}, registry)

	result, err := runner.Run(context.Background(), Goal{Instructions: "review"})
	if !errors.Is(err, ErrReasoningFailed) {
		t.Fatalf("expected ErrReasoningFailed, got %v", err)
	}
	if result.Status != StatusFatal {
		t.Errorf("expected %s, got %s", StatusFatal, result.Status)
	}
}

// TestRunner_Cancellation: cancellation is honoured at the top of the
// iteration and reported as its own terminal status.
func TestRunner_Cancellation(t *testing.T) {
	registry, _ := tool.NewRegistry(fetchPRStub())
	reasoner := &scriptedReasoner{script: []Reasoning{
		{Thought: "fetch", Action: fetchAction()},
	}}
	runner := mustRunner(t, reasoner, registry, WithMaxSteps(100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.Run(ctx, Goal{Instructions: "review"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Status != StatusCancelled {
		t.Errorf("expected %s, got %s", StatusCancelled, result.Status)
	}
	if len(result.Transcript) != 0 {
		t.Errorf("pre-cancelled run must not record steps, got %d", len(result.Transcript))
	}
}

// TestRunner_DeterministicReplay: the same goal and transcript prefix yield
// the same reasoning output, so whole runs are reproducible.
func TestRunner_DeterministicReplay(t *testing.T) {
	reasoner := &scriptedReasoner{script: []Reasoning{
		{Thought: "fetch", Action: fetchAction()},
		{Thought: "done", FinalAnswer: json.RawMessage(`"LGTM"`)},
	}}
	goal := Goal{Instructions: "review PR 42 of acme/widgets"}
	prefix := Transcript{{Thought: "fetch", Action: fetchAction()}}

	first, err1 := reasoner.Reason(context.Background(), goal, prefix)
	second, err2 := reasoner.Reason(context.Background(), goal, prefix)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if first.Thought != second.Thought || string(first.FinalAnswer) != string(second.FinalAnswer) {
		t.Errorf("replaying the same prefix must yield the same step: %+v vs %+v", first, second)
	}

	registry, _ := tool.NewRegistry(fetchPRStub())
	runner := mustRunner(t, reasoner, registry, WithMaxSteps(5))
	resultA, _ := runner.Run(context.Background(), goal)
	resultB, _ := runner.Run(context.Background(), goal)
	if len(resultA.Transcript) != len(resultB.Transcript) || resultA.Status != resultB.Status {
		t.Errorf("two runs of a deterministic script diverged: %v vs %v", resultA.Status, resultB.Status)
	}
	if resultA.RunID == resultB.RunID {
		t.Error("each run must get its own run ID")
	}
}

// TestRunner_TranscriptBound: for any script, the transcript never exceeds
// the step budget.
func TestRunner_TranscriptBound(t *testing.T) {
	registry, _ := tool.NewRegistry(fetchPRStub())
	for _, maxSteps := range []int{1, 3, 7} {
		reasoner := &scriptedReasoner{script: []Reasoning{{Thought: "again", Action: fetchAction()}}}
		runner := mustRunner(t, reasoner, registry, WithMaxSteps(maxSteps))

		result, err := runner.Run(context.Background(), Goal{Instructions: "loop"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Transcript) > maxSteps {
			t.Errorf("maxSteps=%d: transcript length %d exceeds budget", maxSteps, len(result.Transcript))
		}
	}
}

// TestNewRunner_Validation rejects missing collaborators.
func TestNewRunner_Validation(t *testing.T) {
	registry, _ := tool.NewRegistry()
	if _, err := NewRunner(nil, registry); err == nil {
		t.Error("expected error for nil reasoner")
	}
	if _, err := NewRunner(&scriptedReasoner{script: []Reasoning{{}}}, nil); err == nil {
		t.Error("expected error for nil registry")
	}
}
