package layer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/confidence"
	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/errors"
	"github.com/felixgeelhaar/complyscan/internal/log"
	"github.com/felixgeelhaar/complyscan/internal/metrics"
	"github.com/felixgeelhaar/complyscan/internal/telemetry"
)

// Outcome is one projected verdict with the confidence of the layer that
// produced it. Confidence is nil for skips.
type Outcome struct {
	Layer      domain.Layer
	Meta       check.Meta
	Verdict    check.Verdict
	Confidence *confidence.Result
}

// Output is everything L1-L4 produced for one file set
type Output struct {
	Outcomes []Outcome
	Deps     DepReport
}

// Runner executes the registered layers in order: L1, L2, L3, then L4 with
// L3's merged DepReport. Units within a layer run concurrently.
type Runner struct {
	registry    *Registry
	model       confidence.Model
	concurrency int
	logger      *log.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// Option configures a Runner
type Option func(*Runner)

// WithConcurrency bounds the number of units evaluated at once per layer
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTracer sets the tracer used for layer spans
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// NewRunner creates a runner over a registry
func NewRunner(registry *Registry, model confidence.Model, opts ...Option) *Runner {
	r := &Runner{
		registry:    registry,
		model:       model,
		concurrency: runtime.GOMAXPROCS(0),
		logger:      log.Nop(),
		tracer:      noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every layer against fs. The only error is cancellation of ctx.
func (r *Runner) Run(ctx context.Context, fs check.FileSet) (*Output, error) {
	out := &Output{}

	l1, err := runLayer(ctx, r, domain.LayerFilePresence, r.registry.files, func(u check.Unit) []Outcome {
		return r.projectUnit(u, fs)
	})
	if err != nil {
		return nil, err
	}

	l2, err := runLayer(ctx, r, domain.LayerDocStructure, r.registry.docs, func(a DocAnalyzer) []Outcome {
		return []Outcome{r.projectDoc(a.Meta(), a.Analyze(fs))}
	})
	if err != nil {
		return nil, err
	}

	facts := make([]DepReport, len(r.registry.deps))
	l3, err := runLayerIndexed(ctx, r, domain.LayerDependency, r.registry.deps, func(i int, a DepAnalyzer) []Outcome {
		res := a.Analyze(fs)
		facts[i] = res.Facts
		return r.projectDep(a.Meta(), res.Statuses)
	})
	if err != nil {
		return nil, err
	}
	for _, f := range facts {
		out.Deps = out.Deps.Merge(f)
	}

	l4, err := runLayer(ctx, r, domain.LayerPattern, r.registry.patterns, func(p PatternUnit) []Outcome {
		return r.projectPattern(p.Meta(), p.Match(fs, out.Deps))
	})
	if err != nil {
		return nil, err
	}

	for _, layer := range [][]Outcome{l1, l2, l3, l4} {
		out.Outcomes = append(out.Outcomes, layer...)
	}
	return out, nil
}

func runLayer[T check.Describer](ctx context.Context, r *Runner, layer domain.Layer, units []T, fn func(T) []Outcome) ([]Outcome, error) {
	return runLayerIndexed(ctx, r, layer, units, func(_ int, u T) []Outcome { return fn(u) })
}

// runLayerIndexed fans units out over an errgroup and reassembles their
// outcomes in registration order.
func runLayerIndexed[T check.Describer](ctx context.Context, r *Runner, layer domain.Layer, units []T, fn func(int, T) []Outcome) ([]Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeScanCancelled, "scan cancelled before "+layer.String(), err)
	}

	ctx, span := telemetry.StartLayerSpan(ctx, r.tracer, layer.String(), len(units))
	defer span.End()
	start := time.Now()

	results := make([][]Outcome, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.safely(layer, u, func() []Outcome { return fn(i, u) })
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return nil, errors.Wrap(errors.ErrCodeScanCancelled, "scan cancelled during "+layer.String(), err)
	}

	var outcomes []Outcome
	for _, res := range results {
		outcomes = append(outcomes, res...)
	}

	d := time.Since(start)
	r.metrics.ObserveLayer(layer.String(), d)
	for _, o := range outcomes {
		r.metrics.CountVerdict(layer.String(), string(o.Verdict.Type))
	}
	telemetry.RecordSuccess(span, attribute.Int("verdicts", len(outcomes)))
	r.logger.Debug("layer complete",
		"layer", layer.String(),
		"units", len(units),
		"verdicts", len(outcomes),
		"duration_ms", d.Milliseconds(),
	)

	return outcomes, nil
}

// safely converts a panicking unit into a single skip
func (r *Runner) safely(layer domain.Layer, d check.Describer, fn func() []Outcome) (out []Outcome) {
	meta := d.Meta()
	defer func() {
		if p := recover(); p != nil {
			err := errors.NewRuleFailedError(meta.ID, fmt.Errorf("panic: %v", p))
			r.logger.WithError(err).Warn("rule failed", "check", meta.ID, "layer", layer.String())
			r.metrics.CountRuleFailure(meta.ID)
			r.metrics.CountError(string(err.Code), "layer")
			out = []Outcome{{
				Layer:   layer,
				Meta:    meta,
				Verdict: check.Skip(meta.ID, fmt.Sprintf("rule failed: %v", p)),
			}}
		}
	}()
	return fn()
}

func (r *Runner) outcome(meta check.Meta, v check.Verdict, signal any) Outcome {
	o := Outcome{Layer: meta.Layer, Meta: meta, Verdict: v}
	if v.IsSkip() {
		return o
	}
	res, err := r.model.Of(meta.Layer, signal, v.ObligationID)
	if err != nil {
		return Outcome{
			Layer:   meta.Layer,
			Meta:    meta,
			Verdict: check.Skip(meta.ID, fmt.Sprintf("rule failed: %v", err)),
		}
	}
	o.Confidence = &res
	return o
}

func (r *Runner) projectUnit(u check.Unit, fs check.FileSet) []Outcome {
	meta := u.Meta()
	verdicts := check.Normalize(meta, u.Check(fs))
	out := make([]Outcome, 0, len(verdicts))
	for _, v := range verdicts {
		out = append(out, r.outcome(meta, v, confidence.BoolSignal(v.Type == domain.VerdictPass)))
	}
	return out
}

func (r *Runner) projectDoc(meta check.Meta, st DocStatus) Outcome {
	var v check.Verdict
	switch {
	case st.SkipReason != "":
		v = check.Skip(meta.ID, st.SkipReason)
	case st.Status.Passed():
		v = check.Pass(meta.ID, st.Message)
	default:
		v = check.Fail(meta.ID, st.Message, meta.Severity).WithFix(st.Fix)
	}
	if st.Document != "" {
		v = v.At(st.Document, 0)
	}
	v = check.Normalize(meta, []check.Verdict{v})[0]
	return r.outcome(meta, v, st.Status)
}

func (r *Runner) projectDep(meta check.Meta, statuses []ConfigStatus) []Outcome {
	out := make([]Outcome, 0, len(statuses))
	for _, st := range statuses {
		var v check.Verdict
		switch {
		case st.SkipReason != "":
			v = check.Skip(meta.ID, st.SkipReason)
		case st.Status.Passed():
			v = check.Pass(meta.ID, st.Message)
		default:
			v = check.Fail(meta.ID, st.Message, meta.Severity).WithFix(st.Fix)
		}
		v = check.Normalize(meta, []check.Verdict{v.At(st.File, st.Line)})[0]
		out = append(out, r.outcome(meta, v, confidence.ConfigSignal{Status: st.Status, Explicitness: st.Explicitness}))
	}
	return out
}

func (r *Runner) projectPattern(meta check.Meta, results []PatternResult) []Outcome {
	out := make([]Outcome, 0, len(results))
	for _, pr := range results {
		var v check.Verdict
		switch {
		case pr.SkipReason != "":
			v = check.Skip(meta.ID, pr.SkipReason)
		case pr.Matched:
			v = check.Pass(meta.ID, pr.Message)
		default:
			v = check.Fail(meta.ID, pr.Message, meta.Severity).WithFix(pr.Fix)
		}
		v = check.Normalize(meta, []check.Verdict{v.At(pr.File, pr.Line)})[0]
		out = append(out, r.outcome(meta, v, confidence.PatternSignal{
			Specificity:  pr.Specificity,
			Matched:      pr.Matched,
			Corroborated: pr.Corroborated,
		}))
	}
	return out
}
