package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one service operation and tags its log lines.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx. The first span on a request also
// opens a trace, so every nested operation logs the same trace_id.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)
	parent := traceFrom(ctx)

	current := trace{traceID: parent.traceID, spanID: uuid.NewString()}
	if current.traceID == "" {
		current.traceID = uuid.NewString()
		logger = logger.With(slog.String("trace_id", current.traceID))
	}

	logger = logger.With(slog.String("span", name), slog.String("span_id", current.spanID))
	if parent.spanID != "" {
		logger = logger.With(slog.String("parent_span_id", parent.spanID))
	}

	ctx = withTrace(ctx, current)
	ctx = WithLogger(ctx, logger)
	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// End records how long the span took.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Debug("span completed", slog.Duration("duration", time.Since(s.start)))
}
