// Package pipeline wires the detection layers, the escalation oracle and the
// scorer into one scan.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/confidence"
	"github.com/felixgeelhaar/complyscan/internal/errors"
	"github.com/felixgeelhaar/complyscan/internal/escalation"
	"github.com/felixgeelhaar/complyscan/internal/finding"
	"github.com/felixgeelhaar/complyscan/internal/layer"
	"github.com/felixgeelhaar/complyscan/internal/log"
	"github.com/felixgeelhaar/complyscan/internal/metrics"
	"github.com/felixgeelhaar/complyscan/internal/policy"
	"github.com/felixgeelhaar/complyscan/internal/rules"
	"github.com/felixgeelhaar/complyscan/internal/scoring"
	"github.com/felixgeelhaar/complyscan/internal/telemetry"
	"github.com/felixgeelhaar/complyscan/internal/version"
)

// ScanContext carries every collaborator of a scan. Nothing in the pipeline
// reads process-wide state.
type ScanContext struct {
	// Root labels the scan in spans and the report envelope
	Root string

	// Policy may be nil or partly invalid; invalid sections fall back to defaults
	Policy *policy.Policy

	// Registry defaults to the built-in rule pack
	Registry *layer.Registry

	// Judge is the escalation oracle; nil disables escalation
	Judge escalation.Judge

	// Pricing prices oracle calls; nil prices them at zero
	Pricing escalation.PricingFunc

	// Cache replays oracle judgments; nil disables caching
	Cache escalation.Cache

	// Concurrency bounds units per layer; zero uses GOMAXPROCS
	Concurrency int

	Logger  *log.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
}

// Result is everything one scan produced. It contains no timestamps, so an
// unchanged file set and unchanged oracle answers give an identical Result.
type Result struct {
	Findings    []finding.Finding      `json:"findings"`
	Escalations []escalation.Result    `json:"escalations"`
	Score       scoring.ScoreBreakdown `json:"score"`
	Deps        layer.DepReport        `json:"dependencies"`
}

// Report wraps a Result with run identity
type Report struct {
	ScanID     string    `json:"scanId"`
	Tool       string    `json:"tool"`
	Version    string    `json:"version"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`
	Result     *Result   `json:"result"`
}

// Engine runs scans
type Engine struct {
	sc       ScanContext
	scoring  *policy.Scoring
	escalate bool
	runner   *layer.Runner
	analyzer *escalation.Analyzer
}

// NewEngine resolves the policy and builds the layer runner and analyzer
func NewEngine(sc ScanContext) (*Engine, error) {
	if sc.Logger == nil {
		sc.Logger = log.Nop()
	}
	if sc.Tracer == nil {
		sc.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if sc.Registry == nil {
		reg, err := rules.Default()
		if err != nil {
			return nil, err
		}
		sc.Registry = reg
	}

	e := &Engine{sc: sc}
	model := confidence.DefaultModel()
	escCfg := escalation.DefaultConfig()

	if p := sc.Policy; p != nil {
		if err := p.Scoring.Validate(); err != nil {
			sc.Logger.WithError(err).Warn("scoring policy invalid, using the unweighted fallback scorer")
			sc.Metrics.CountError(string(policyCode(err)), "policy")
		} else {
			e.scoring = &p.Scoring
		}

		if err := p.Confidence.Validate(); err != nil {
			sc.Logger.WithError(err).Warn("confidence policy invalid, using default bands")
			sc.Metrics.CountError(string(errors.ErrCodePolicyBands), "policy")
		} else {
			model = p.Confidence
		}

		if err := p.Escalation.Validate(); err != nil {
			sc.Logger.WithError(err).Warn("escalation policy invalid, using defaults")
			sc.Metrics.CountError(string(policyCode(err)), "policy")
			e.escalate = true
		} else {
			escCfg = escalation.ConfigFromPolicy(p.Escalation)
			e.escalate = p.Escalation.Enabled
		}

		if len(p.Rules.Disabled) > 0 {
			sc.Registry = sc.Registry.Filter(func(m check.Meta) bool { return !p.Rules.IsDisabled(m.ID) })
		}
	} else {
		e.escalate = true
	}
	e.escalate = e.escalate && sc.Judge != nil

	e.runner = layer.NewRunner(sc.Registry, model,
		layer.WithConcurrency(sc.Concurrency),
		layer.WithLogger(sc.Logger.Named("layer")),
		layer.WithMetrics(sc.Metrics),
		layer.WithTracer(sc.Tracer),
	)

	if e.escalate {
		opts := []escalation.Option{
			escalation.WithConfidenceModel(model),
			escalation.WithLogger(sc.Logger.Named("escalation")),
			escalation.WithMetrics(sc.Metrics),
			escalation.WithTracer(sc.Tracer),
		}
		if sc.Cache != nil {
			opts = append(opts, escalation.WithCache(sc.Cache))
		}
		e.analyzer = escalation.NewAnalyzer(sc.Judge, sc.Pricing, escCfg, opts...)
	}

	e.sc = sc
	return e, nil
}

// Escalates reports whether scans will consult the oracle
func (e *Engine) Escalates() bool {
	return e.escalate
}

// Scan runs L1-L4, escalates uncertain findings and scores the result. The
// only error is cancellation of ctx before the layers finish.
func (e *Engine) Scan(ctx context.Context, fs check.FileSet) (*Result, error) {
	ctx, span := telemetry.StartScanSpan(ctx, e.sc.Tracer, e.sc.Root, fs.Len())
	defer span.End()
	start := time.Now()

	out, err := e.runner.Run(ctx, fs)
	if err != nil {
		telemetry.RecordError(span, err)
		e.sc.Logger.WithError(err).WarnContext(ctx, "scan aborted")
		return nil, err
	}

	findings := finding.Assemble(out.Outcomes)
	results := []escalation.Result{}
	if e.analyzer != nil {
		results = e.analyzer.AnalyzeFindings(ctx, findings, fs)
		findings = escalation.ApplyResults(findings, results)
	}

	score := scoring.Score(findings, e.scoring).WithEscalations(results)

	d := time.Since(start)
	e.sc.Metrics.ObserveScan(string(score.Zone), string(score.Mode), score.TotalScore, d)
	telemetry.RecordSuccess(span,
		attribute.Int("score", score.TotalScore),
		attribute.String("zone", string(score.Zone)),
		attribute.Int("findings", len(findings)),
		attribute.Int("escalations", len(results)),
	)
	e.sc.Logger.InfoContext(ctx, "scan complete",
		"root", e.sc.Root,
		"files", fs.Len(),
		"findings", len(findings),
		"escalations", len(results),
		"score", score.TotalScore,
		"zone", string(score.Zone),
		"mode", string(score.Mode),
		"duration_ms", d.Milliseconds(),
	)

	return &Result{
		Findings:    findings,
		Escalations: results,
		Score:       score,
		Deps:        out.Deps,
	}, nil
}

// ScanReport runs Scan and wraps the result in a Report envelope
func (e *Engine) ScanReport(ctx context.Context, fs check.FileSet) (*Report, error) {
	started := time.Now().UTC()
	res, err := e.Scan(ctx, fs)
	if err != nil {
		return nil, err
	}
	return &Report{
		ScanID:     uuid.NewString(),
		Tool:       "complyscan",
		Version:    version.GetInfo().Short(),
		Root:       e.sc.Root,
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
		Result:     res,
	}, nil
}

// policyCode labels a policy problem for the error counter
func policyCode(err error) errors.ErrorCode {
	if c := errors.CodeOf(err); c != "" {
		return c
	}
	return errors.ErrCodePolicyInvalid
}
