package escalation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/confidence"
	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/errors"
	"github.com/felixgeelhaar/complyscan/internal/finding"
	"github.com/felixgeelhaar/complyscan/internal/log"
	"github.com/felixgeelhaar/complyscan/internal/metrics"
	"github.com/felixgeelhaar/complyscan/internal/policy"
	"github.com/felixgeelhaar/complyscan/internal/router"
	"github.com/felixgeelhaar/complyscan/internal/telemetry"
)

// Reasons recorded on results that never reached the oracle
const (
	ReasonBudgetExhausted = "escalation skipped: budget exhausted"
	ReasonMaxFindings     = "escalation skipped: max findings reached"
)

// estimatedOutputTokens is the completion size assumed when reserving budget
const estimatedOutputTokens = 300

// Result is the outcome of escalating one finding
type Result struct {
	FindingID          string                 `json:"findingId"`
	OriginalConfidence int                    `json:"originalConfidence"`
	NewConfidence      int                    `json:"newConfidence"`
	NewLevel           domain.ConfidenceLevel `json:"newLevel"`
	Verdict            Verdict                `json:"verdict"`
	Reasoning          string                 `json:"reasoning"`
	Evidence           []string               `json:"evidence"`
	PromptType         PromptType             `json:"promptType"`
	Cost               float64                `json:"cost"`
	Model              string                 `json:"model,omitempty"`
	InputTokens        int                    `json:"inputTokens,omitempty"`
	OutputTokens       int                    `json:"outputTokens,omitempty"`
	Cached             bool                   `json:"cached,omitempty"`
}

// Config controls escalation
type Config struct {
	Band        Band
	Concurrency int
	Timeout     time.Duration
	Model       string
	BudgetUSD   float64
	MaxFindings int
	Snippets    SnippetLimits
}

// DefaultConfig escalates [40,70] four at a time with a 30s deadline per call
func DefaultConfig() Config {
	return Config{
		Band:        DefaultBand,
		Concurrency: 4,
		Timeout:     30 * time.Second,
		Snippets:    DefaultSnippetLimits,
	}
}

// ConfigFromPolicy converts the policy section, keeping defaults for zero values
func ConfigFromPolicy(p policy.Escalation) Config {
	cfg := DefaultConfig()
	if p.BandLow != 0 || p.BandHigh != 0 {
		cfg.Band = Band{Low: p.BandLow, High: p.BandHigh}
	}
	if p.Concurrency > 0 {
		cfg.Concurrency = p.Concurrency
	}
	if p.Timeout > 0 {
		cfg.Timeout = p.Timeout
	}
	cfg.Model = p.Model
	cfg.BudgetUSD = p.BudgetUSD
	cfg.MaxFindings = p.MaxFindings
	if p.MaxSnippets > 0 {
		cfg.Snippets.MaxSnippets = p.MaxSnippets
	}
	if p.MaxSnippetLines > 0 {
		cfg.Snippets.MaxLines = p.MaxSnippetLines
	}
	return cfg
}

// Analyzer escalates uncertain findings to a Judge
type Analyzer struct {
	judge   Judge
	pricing PricingFunc
	config  Config
	model   confidence.Model
	cache   Cache
	logger  *log.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithCache stores and replays judgments
func WithCache(c Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithConfidenceModel sets the model used to bucket new confidences
func WithConfidenceModel(m confidence.Model) Option {
	return func(a *Analyzer) { a.model = m }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithTracer sets the tracer used for oracle spans
func WithTracer(t trace.Tracer) Option {
	return func(a *Analyzer) { a.tracer = t }
}

// NewAnalyzer creates an Analyzer. A nil pricing function prices every call at zero.
func NewAnalyzer(judge Judge, pricing PricingFunc, cfg Config, opts ...Option) *Analyzer {
	if pricing == nil {
		pricing = func(string, int, int) float64 { return 0 }
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	a := &Analyzer{
		judge:   judge,
		pricing: pricing,
		config:  cfg,
		model:   confidence.DefaultModel(),
		logger:  log.Nop(),
		tracer:  noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// call is one planned judgment
type call struct {
	index   int
	finding finding.Finding
	prompt  string
	key     string
}

// AnalyzeFindings escalates every uncertain finding and returns one result
// per escalated finding in input order. Failures of individual calls become
// uncertain results; nothing here aborts the batch.
func (a *Analyzer) AnalyzeFindings(ctx context.Context, findings []finding.Finding, fs check.FileSet) []Result {
	var results []Result
	var calls []call

	budget := router.NewBudget(a.config.BudgetUSD)
	escalated := 0

	// Planning is sequential so budget and cap decisions follow input order.
	for _, f := range findings {
		if !IsUncertain(f, a.config.Band) {
			continue
		}

		pt := SelectPromptType(f)
		res := Result{
			FindingID:          f.ID,
			OriginalConfidence: *f.Confidence,
			NewConfidence:      *f.Confidence,
			NewLevel:           f.ConfidenceLevel,
			Verdict:            VerdictUncertain,
			PromptType:         pt,
			Model:              a.config.Model,
		}

		if a.config.MaxFindings > 0 && escalated >= a.config.MaxFindings {
			res.Reasoning = ReasonMaxFindings
			results = append(results, res)
			a.metrics.CountEscalation(string(pt), string(VerdictUncertain))
			continue
		}

		prompt := BuildPrompt(pt, f, ExtractSnippets(f, fs, a.config.Snippets))
		key := CacheKey(a.config.Model, prompt)

		if j, ok := a.cached(key); ok {
			r, _ := a.resolve(res, f, j, true)
			results = append(results, r)
			escalated++
			continue
		}

		estimate := a.pricing(a.config.Model, router.EstimateTokens(prompt), estimatedOutputTokens)
		if !budget.Reserve(estimate) {
			res.Reasoning = ReasonBudgetExhausted
			results = append(results, res)
			a.metrics.CountEscalation(string(pt), string(VerdictUncertain))
			a.logger.Info("escalation skipped", "finding", f.ID, "reason", "budget exhausted",
				"budget_usd", a.config.BudgetUSD, "estimated_usd", estimate)
			continue
		}

		escalated++
		results = append(results, res)
		calls = append(calls, call{index: len(results) - 1, finding: f, prompt: prompt, key: key})
	}

	if len(calls) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(a.config.Concurrency)
	for _, c := range calls {
		g.Go(func() error {
			results[c.index] = a.escalate(ctx, results[c.index], c)
			return nil
		})
	}
	_ = g.Wait()

	var spent float64
	for _, r := range results {
		spent += r.Cost
	}
	a.logger.Info("escalation complete",
		"candidates", len(results),
		"calls", len(calls),
		"cost_usd", spent,
	)

	return results
}

func (a *Analyzer) cached(key string) (Judgment, bool) {
	if a.cache == nil {
		return Judgment{}, false
	}
	j, ok := a.cache.Get(key)
	a.metrics.CountCache(ok)
	return j, ok
}

// escalate performs one judgment call with its own deadline
func (a *Analyzer) escalate(parent context.Context, res Result, c call) (out Result) {
	ctx, span := telemetry.StartOracleSpan(parent, a.tracer, c.finding.ID, string(res.PromptType))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err := errors.NewOracleFailedError(c.finding.ID, fmt.Errorf("panic: %v", p))
			out = a.failed(res, span, err)
		}
	}()

	start := time.Now()
	j, err := a.judge.Judge(ctx, c.prompt)
	d := time.Since(start)
	telemetry.RecordDuration(span, "oracle_latency", d)

	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errors.Wrap(errors.ErrCodeOracleTimeout,
				fmt.Sprintf("oracle call timed out after %s for %s", a.config.Timeout, c.finding.ID), err)
		} else {
			err = errors.NewOracleFailedError(c.finding.ID, err)
		}
		return a.failed(res, span, err)
	}

	if j.Model == "" {
		j.Model = a.config.Model
	}
	res.Cost = a.pricing(j.Model, j.InputTokens, j.OutputTokens)
	a.metrics.ObserveOracleCall(j.Model, j.InputTokens, j.OutputTokens, res.Cost, d)

	out, perr := a.resolve(res, c.finding, j, false)
	if perr != nil {
		telemetry.RecordError(span, perr)
		return out
	}

	if a.cache != nil {
		if err := a.cache.Put(c.key, j); err != nil {
			a.logger.WithError(err).Warn("oracle cache write failed", "finding", c.finding.ID)
		}
	}

	telemetry.RecordSuccess(span,
		attribute.String("verdict", string(out.Verdict)),
		attribute.Int("confidence", out.NewConfidence),
		attribute.Float64("cost_usd", out.Cost),
	)
	return out
}

// resolve parses a judgment into res. Malformed text leaves the finding
// uncertain and returns the parse error.
func (a *Analyzer) resolve(res Result, f finding.Finding, j Judgment, cached bool) (Result, error) {
	res.Cached = cached
	if j.Model != "" {
		res.Model = j.Model
	}
	res.InputTokens, res.OutputTokens = j.InputTokens, j.OutputTokens

	resp, err := ParseResponse(j.Text)
	if err != nil {
		res.Reasoning = "oracle response parsing failed: " + err.Error()
		a.logger.WithError(err).Warn("oracle response malformed", "finding", f.ID)
		a.metrics.CountError(string(errors.CodeOf(err)), "escalation")
		a.metrics.CountEscalation(string(res.PromptType), string(VerdictUncertain))
		return res, err
	}

	res.Verdict = resp.Verdict
	res.Reasoning = resp.Reasoning
	res.Evidence = resp.Evidence
	res.NewConfidence = complianceConfidence(resp, res.OriginalConfidence)
	res.NewLevel = a.model.Level(res.NewConfidence)
	if resp.Verdict == VerdictUncertain {
		res.NewConfidence = res.OriginalConfidence
		res.NewLevel = f.ConfidenceLevel
	}

	a.metrics.CountEscalation(string(res.PromptType), string(res.Verdict))
	a.logger.Debug("finding escalated",
		"finding", f.ID,
		"prompt_type", string(res.PromptType),
		"verdict", string(res.Verdict),
		"original_confidence", res.OriginalConfidence,
		"new_confidence", res.NewConfidence,
		"cached", cached,
	)
	return res, nil
}

func (a *Analyzer) failed(res Result, span trace.Span, err error) Result {
	telemetry.RecordError(span, err)
	a.logger.WithError(err).Warn("oracle call failed", "finding", res.FindingID)
	a.metrics.CountError(string(errors.CodeOf(err)), "escalation")
	a.metrics.CountEscalation(string(res.PromptType), string(VerdictUncertain))

	res.Verdict = VerdictUncertain
	res.Reasoning = "oracle call failed: " + firstLine(err.Error())
	res.Evidence = nil
	return res
}

// firstLine drops the suggestion block of coded errors
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
