// Package slogtrace renders agent trace events through log/slog.
//
// It is the default human-facing observability sink: each TraceEvent
// becomes one structured log line, with long values truncated so verbose
// runs stay readable in a terminal.
package slogtrace

import (
	"context"
	"log/slog"

	"github.com/leofalp/reagent/internal/utils"
	"github.com/leofalp/reagent/providers/observability"
)

// MaxValueLength caps thought and detail strings in log output.
const MaxValueLength = 500

// Sink writes trace events to a slog.Logger.
type Sink struct {
	logger *slog.Logger
	level  slog.Level
}

type options struct {
	logger *slog.Logger
	level  slog.Level
}

// WithLogger sets the destination logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) func(*options) {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLevel sets the level events are logged at. Defaults to slog.LevelInfo.
func WithLevel(level slog.Level) func(*options) {
	return func(o *options) {
		o.level = level
	}
}

// New constructs a Sink. Without options it logs at info level through the
// process default logger.
func New(opts ...func(*options)) *Sink {
	configured := options{logger: slog.Default(), level: slog.LevelInfo}
	for _, opt := range opts {
		opt(&configured)
	}
	return &Sink{logger: configured.logger, level: configured.level}
}

// Emit logs one event. It never returns a non-nil error; the signature
// exists to satisfy [observability.Sink].
func (s *Sink) Emit(ctx context.Context, event observability.TraceEvent) error {
	attrs := []any{
		slog.String("run_id", event.RunID),
		slog.Int("step", event.Step),
	}

	switch event.Type {
	case observability.EventThoughtProduced:
		attrs = append(attrs,
			slog.String("thought", utils.TruncateString(event.Thought, MaxValueLength)),
			slog.Float64("confidence", event.Confidence),
		)
	case observability.EventActionDispatched:
		attrs = append(attrs,
			slog.String("tool", event.ToolName),
			slog.Any("arguments", event.Arguments),
		)
	case observability.EventObservationReceived:
		attrs = append(attrs,
			slog.String("tool", event.ToolName),
			slog.Bool("success", event.Success),
			slog.String("result", utils.TruncateString(event.Detail, MaxValueLength)),
		)
	case observability.EventRunTerminated:
		attrs = append(attrs, slog.String("status", event.Detail))
	}

	s.logger.Log(ctx, s.level, string(event.Type), attrs...)
	return nil
}
