package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartScanSpan creates the root span of a scan.
//
// Usage:
//
//	ctx, span := telemetry.StartScanSpan(ctx, tracer, root, fs.Len())
//	defer span.End()
func StartScanSpan(ctx context.Context, tracer trace.Tracer, root string, files int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "scan")

	span.SetAttributes(
		attribute.String("root", root),
		attribute.Int("files", files),
		attribute.String("component", "pipeline"),
	)

	return ctx, span
}

// StartLayerSpan creates a span for one detection layer
func StartLayerSpan(ctx context.Context, tracer trace.Tracer, layer string, units int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "layer."+layer)

	span.SetAttributes(
		attribute.String("layer", layer),
		attribute.Int("units", units),
		attribute.String("component", "layer"),
	)

	return ctx, span
}

// StartOracleSpan creates a span for one judgment call.
//
// Usage:
//
//	ctx, span := telemetry.StartOracleSpan(ctx, tracer, f.ID, string(pt))
//	defer span.End()
//
//	span.SetAttributes(attribute.String("model", model))
func StartOracleSpan(ctx context.Context, tracer trace.Tracer, findingID, promptType string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "oracle.judge")

	span.SetAttributes(
		attribute.String("finding_id", findingID),
		attribute.String("prompt_type", promptType),
		attribute.String("component", "escalation"),
	)

	return ctx, span
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records an error in a span and sets error status.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(
		attribute.Bool("error", true),
	)
}

// RecordDuration records the duration of an operation as a span attribute.
func RecordDuration(span trace.Span, name string, duration time.Duration) {
	span.SetAttributes(
		attribute.Int64(name+"_ms", duration.Milliseconds()),
	)
}
