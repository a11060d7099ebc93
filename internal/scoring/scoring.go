// Package scoring reduces findings to one bounded score and risk zone.
package scoring

import (
	"math"
	"sort"

	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/escalation"
	"github.com/felixgeelhaar/complyscan/internal/finding"
	"github.com/felixgeelhaar/complyscan/internal/policy"
)

// Mode names the scorer that produced a breakdown
type Mode string

const (
	ModeWeighted Mode = "weighted"
	ModeFallback Mode = "fallback"
)

// CategoryScore is the contribution of one obligation category
type CategoryScore struct {
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
	Passed   int     `json:"passed"`
	Total    int     `json:"total"`
	Score    int     `json:"score"`
}

// ConfidenceSummary aggregates confidence metadata over the final findings
type ConfidenceSummary struct {
	ByLevel           map[domain.ConfidenceLevel]int `json:"byLevel"`
	Escalated         int                            `json:"escalated"`
	Resolved          int                            `json:"resolved"`
	OracleCostUSD     float64                        `json:"oracleCostUsd"`
	AverageConfidence float64                        `json:"averageConfidence"`
}

// ScoreBreakdown is the result of scoring a scan
type ScoreBreakdown struct {
	TotalScore         int               `json:"totalScore"`
	Zone               domain.Zone       `json:"zone"`
	Mode               Mode              `json:"mode"`
	CategoryScores     []CategoryScore   `json:"categoryScores,omitempty"`
	CriticalCapApplied bool              `json:"criticalCapApplied"`
	CriticalFailures   []string          `json:"criticalFailures,omitempty"`
	TotalChecks        int               `json:"totalChecks"`
	PassedChecks       int               `json:"passedChecks"`
	FailedChecks       int               `json:"failedChecks"`
	SkippedChecks      int               `json:"skippedChecks"`
	ConfidenceSummary  ConfidenceSummary `json:"confidenceSummary"`
}

type tally struct {
	passed, total int
}

// Score computes the breakdown. A nil or invalid scoring policy selects the
// unweighted fallback scorer, which applies no critical cap.
func Score(findings []finding.Finding, s *policy.Scoring) ScoreBreakdown {
	counts := finding.Count(findings)
	b := ScoreBreakdown{
		TotalChecks:       counts.Total,
		PassedChecks:      counts.Passed,
		FailedChecks:      counts.Failed,
		SkippedChecks:     counts.Skipped,
		ConfidenceSummary: summarize(findings),
	}

	if s == nil || s.Validate() != nil {
		b.Mode = ModeFallback
		b.TotalScore = ratio(counts.Passed, counts.Passed+counts.Failed)
		b.Zone = domain.ZoneFor(b.TotalScore)
		return b
	}

	b.Mode = ModeWeighted
	b.CategoryScores = categoryScores(findings, s)
	b.TotalScore = weighted(b.CategoryScores, counts)

	for _, f := range findings {
		if f.IsFail() && f.Severity == domain.SeverityCritical {
			b.CriticalFailures = append(b.CriticalFailures, f.ID)
		}
	}

	b.Zone = domain.ZoneFor(b.TotalScore)
	if s.CriticalCap.Enabled && len(b.CriticalFailures) > 0 {
		b.CriticalCapApplied = true
		if b.TotalScore > s.CriticalCap.Ceiling {
			b.TotalScore = s.CriticalCap.Ceiling
		}
		b.Zone = domain.ZoneRed
	}
	return b
}

// categoryScores groups applicable findings by category. Weights are
// normalised over the categories present; the result is sorted by category.
func categoryScores(findings []finding.Finding, s *policy.Scoring) []CategoryScore {
	tallies := make(map[string]*tally)
	for _, f := range findings {
		if f.IsSkip() {
			continue
		}
		cat := s.CategoryFor(f.ObligationID, f.Category)
		t, ok := tallies[cat]
		if !ok {
			t = &tally{}
			tallies[cat] = t
		}
		t.total++
		if f.IsPass() {
			t.passed++
		}
	}

	var sum float64
	for cat := range tallies {
		sum += s.Weights[cat]
	}

	out := make([]CategoryScore, 0, len(tallies))
	for cat, t := range tallies {
		cs := CategoryScore{
			Category: cat,
			Passed:   t.passed,
			Total:    t.total,
			Score:    ratio(t.passed, t.total),
		}
		if sum > 0 {
			cs.Weight = s.Weights[cat] / sum
		}
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// weighted combines category ratios. When no present category carries
// weight, every applicable check counts equally.
func weighted(cats []CategoryScore, counts finding.Counts) int {
	if len(cats) == 0 {
		return 100
	}

	var score, weight float64
	for _, c := range cats {
		score += c.Weight * float64(c.Passed) / float64(c.Total)
		weight += c.Weight
	}
	if weight == 0 {
		return ratio(counts.Passed, counts.Passed+counts.Failed)
	}
	return clamp(int(math.Round(score / weight * 100)))
}

// ratio is passed/total as a rounded percentage; no applicable checks is 100
func ratio(passed, total int) int {
	if total == 0 {
		return 100
	}
	return clamp(int(math.Round(float64(passed) / float64(total) * 100)))
}

func clamp(v int) int {
	return max(0, min(100, v))
}

func summarize(findings []finding.Finding) ConfidenceSummary {
	sum := ConfidenceSummary{ByLevel: make(map[domain.ConfidenceLevel]int)}

	var total, n int
	for _, f := range findings {
		if !f.HasConfidence() {
			continue
		}
		sum.ByLevel[f.ConfidenceLevel]++
		total += *f.Confidence
		n++
		if f.Escalated {
			sum.Resolved++
		}
	}
	if n > 0 {
		sum.AverageConfidence = math.Round(float64(total)/float64(n)*10) / 10
	}
	return sum
}

// WithEscalations adds oracle activity to the confidence summary
func (b ScoreBreakdown) WithEscalations(results []escalation.Result) ScoreBreakdown {
	b.ConfidenceSummary.Escalated = len(results)
	var cost float64
	for _, r := range results {
		cost += r.Cost
	}
	b.ConfidenceSummary.OracleCostUSD = cost
	return b
}
