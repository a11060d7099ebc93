package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/felixgeelhaar/complyscan/internal/log"
)

// setupTestProvider creates an enabled provider with an in-memory exporter
func setupTestProvider(t *testing.T) (*Provider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	cfg := DefaultConfig()
	cfg.Enabled = true

	p := NewProvider(cfg, exporter)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p, exporter
}

func TestStartScanSpan(t *testing.T) {
	p, exporter := setupTestProvider(t)

	ctx := context.Background()
	spanCtx, span := StartScanSpan(ctx, p.Tracer(), "/repo", 12)
	if spanCtx == ctx {
		t.Error("expected new context with span, got same context")
	}
	RecordSuccess(span, attribute.Int("findings", 3))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "scan" {
		t.Errorf("span name = %q, want scan", spans[0].Name)
	}
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("status = %v, want Ok", spans[0].Status.Code)
	}

	found := false
	for _, kv := range spans[0].Attributes {
		if kv.Key == "files" && kv.Value.AsInt64() == 12 {
			found = true
		}
	}
	if !found {
		t.Error("files attribute missing")
	}
}

func TestNestedSpans(t *testing.T) {
	p, exporter := setupTestProvider(t)
	tracer := p.Tracer()

	ctx, scan := StartScanSpan(context.Background(), tracer, ".", 1)
	_, layer := StartLayerSpan(ctx, tracer, "L1", 4)
	layer.End()
	_, oracle := StartOracleSpan(ctx, tracer, "ai-disclosure", "code_pattern_check")
	RecordError(oracle, errors.New("timeout"))
	oracle.End()
	scan.End()

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	root := spans[2]
	for _, s := range spans[:2] {
		if s.Parent.SpanID() != root.SpanContext.SpanID() {
			t.Errorf("span %s is not a child of scan", s.Name)
		}
	}
	if spans[1].Status.Code != codes.Error {
		t.Errorf("oracle span status = %v, want Error", spans[1].Status.Code)
	}
}

func TestNoopProvider(t *testing.T) {
	p := NewProvider(DefaultConfig())
	_, span := StartScanSpan(context.Background(), p.Tracer(), ".", 0)
	if span.SpanContext().IsValid() {
		t.Error("disabled provider should produce invalid span contexts")
	}
	span.End()

	var nilProvider *Provider
	if err := nilProvider.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider shutdown: %v", err)
	}
}

func TestLogExporter(t *testing.T) {
	var buf bytes.Buffer
	cfg := log.DefaultConfig()
	cfg.Level = log.LevelDebug
	cfg.Output = log.NewOutput(&buf)
	logger := log.New(cfg)

	cfgT := DefaultConfig()
	cfgT.Enabled = true
	p := NewProvider(cfgT, NewLogExporter(logger))

	_, span := StartLayerSpan(context.Background(), p.Tracer(), "L3", 2)
	span.End()
	_ = p.Shutdown(context.Background())
	_ = logger.Sync()

	out := buf.String()
	if !strings.Contains(out, "span finished") || !strings.Contains(out, "layer.L3") {
		t.Errorf("log output missing span: %s", out)
	}
}
