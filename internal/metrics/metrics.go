package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for complyscan.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Scan metrics
	Scans        *prometheus.CounterVec
	ScanDuration prometheus.Histogram
	Score        prometheus.Gauge

	// Layer metrics
	LayerDuration *prometheus.HistogramVec
	Verdicts      *prometheus.CounterVec
	RuleFailures  *prometheus.CounterVec

	// Escalation metrics
	Escalations   *prometheus.CounterVec
	OracleLatency *prometheus.HistogramVec
	OracleCost    *prometheus.CounterVec
	OracleTokens  *prometheus.CounterVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Scans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_scans_total",
				Help: "Total number of completed scans by zone",
			},
			[]string{"zone", "mode"},
		),
		ScanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "complyscan_scan_duration_seconds",
				Help:    "Scan duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		Score: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "complyscan_score",
				Help: "Total score of the last scan",
			},
		),

		LayerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "complyscan_layer_duration_seconds",
				Help:    "Detection layer duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"layer"},
		),
		Verdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_verdicts_total",
				Help: "Total number of verdicts by layer and type",
			},
			[]string{"layer", "type"},
		),
		RuleFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_rule_failures_total",
				Help: "Total number of rules that panicked and were skipped",
			},
			[]string{"check"},
		),

		Escalations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_escalations_total",
				Help: "Total number of oracle escalations by prompt type and verdict",
			},
			[]string{"prompt_type", "verdict"},
		),
		OracleLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "complyscan_oracle_latency_seconds",
				Help:    "Judgment oracle call latency in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"model"},
		),
		OracleCost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_oracle_cost_usd_total",
				Help: "Total estimated oracle cost in USD",
			},
			[]string{"model"},
		),
		OracleTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_oracle_tokens_total",
				Help: "Total oracle tokens by direction",
			},
			[]string{"model", "token_type"},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "complyscan_oracle_cache_hits_total",
				Help: "Oracle responses served from the cache",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "complyscan_oracle_cache_misses_total",
				Help: "Oracle prompts not found in the cache",
			},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// ObserveScan records a finished scan
func (m *Metrics) ObserveScan(zone, mode string, score int, d time.Duration) {
	if m == nil {
		return
	}
	m.Scans.WithLabelValues(zone, mode).Inc()
	m.ScanDuration.Observe(d.Seconds())
	m.Score.Set(float64(score))
}

// ObserveLayer records one detection layer run
func (m *Metrics) ObserveLayer(layer string, d time.Duration) {
	if m == nil {
		return
	}
	m.LayerDuration.WithLabelValues(layer).Observe(d.Seconds())
}

// CountVerdict records one verdict
func (m *Metrics) CountVerdict(layer, verdictType string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(layer, verdictType).Inc()
}

// CountRuleFailure records a rule that panicked
func (m *Metrics) CountRuleFailure(checkID string) {
	if m == nil {
		return
	}
	m.RuleFailures.WithLabelValues(checkID).Inc()
}

// ObserveOracleCall records one judgment call
func (m *Metrics) ObserveOracleCall(model string, inputTokens, outputTokens int, cost float64, d time.Duration) {
	if m == nil {
		return
	}
	m.OracleLatency.WithLabelValues(model).Observe(d.Seconds())
	m.OracleCost.WithLabelValues(model).Add(cost)
	m.OracleTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.OracleTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
}

// CountEscalation records an escalation outcome
func (m *Metrics) CountEscalation(promptType, verdict string) {
	if m == nil {
		return
	}
	m.Escalations.WithLabelValues(promptType, verdict).Inc()
}

// CountCache records a cache lookup
func (m *Metrics) CountCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}

// CountError records a structured error code
func (m *Metrics) CountError(code, component string) {
	if m == nil || code == "" {
		return
	}
	m.Errors.WithLabelValues(code, component).Inc()
}
