package slogtrace

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/leofalp/reagent/providers/observability"
)

// TestSink_Emit renders each event type and checks the log line content.
func TestSink_Emit(t *testing.T) {
	tests := []struct {
		name  string
		event observability.TraceEvent
		want  []string
	}{
		{
			"thought",
			observability.TraceEvent{
				RunID:      "run-1",
				Step:       1,
				Type:       observability.EventThoughtProduced,
				Thought:    "fetch the diff first",
				Confidence: 0.8,
			},
			[]string{"thought_produced", "fetch the diff first", "run-1"},
		},
		{
			"action",
			observability.TraceEvent{
				RunID:     "run-1",
				Step:      1,
				Type:      observability.EventActionDispatched,
				ToolName:  "fetch_pr",
				Arguments: map[string]any{"owner": "acme"},
			},
			[]string{"action_dispatched", "fetch_pr"},
		},
		{
			"observation",
			observability.TraceEvent{
				RunID:    "run-1",
				Step:     1,
				Type:     observability.EventObservationReceived,
				ToolName: "fetch_pr",
				Success:  false,
				Detail:   "tool failed: 404",
			},
			[]string{"observation_received", "success=false", "404"},
		},
		{
			"terminated",
			observability.TraceEvent{
				RunID:  "run-1",
				Step:   2,
				Type:   observability.EventRunTerminated,
				Detail: "terminated_success",
			},
			[]string{"run_terminated", "terminated_success"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			sink := New(WithLogger(logger))

			if err := sink.Emit(context.Background(), tc.event); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			line := buf.String()
			for _, want := range tc.want {
				if !strings.Contains(line, want) {
					t.Errorf("log line %q does not contain %q", line, want)
				}
			}
		})
	}
}

// TestSink_TruncatesLongThoughts keeps verbose output bounded.
func TestSink_TruncatesLongThoughts(t *testing.T) {
	var buf bytes.Buffer
	sink := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	long := strings.Repeat("reasoning ", 200)
	_ = sink.Emit(context.Background(), observability.TraceEvent{
		Type:    observability.EventThoughtProduced,
		Thought: long,
	})

	if !strings.Contains(buf.String(), "truncated") {
		t.Error("expected long thought to be truncated")
	}
}
