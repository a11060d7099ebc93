package log

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// WithTrace adds the trace and span ids of the active span in ctx, if any
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}

// DebugContext logs a debug message correlated with the span in ctx
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.WithTrace(ctx).sugar.Debugw(msg, args...)
}

// InfoContext logs an info message correlated with the span in ctx
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.WithTrace(ctx).sugar.Infow(msg, args...)
}

// WarnContext logs a warning correlated with the span in ctx
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.WithTrace(ctx).sugar.Warnw(msg, args...)
}

// ErrorContext logs an error correlated with the span in ctx
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.WithTrace(ctx).sugar.Errorw(msg, args...)
}
