package finding

import (
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/layer"
)

// Finding is the externally visible, confidence-annotated record of one
// verdict. Only escalation may change it; it is never modified after scoring.
type Finding struct {
	// ID is unique within a scan: the check id, suffixed "#n" for repeated emissions
	ID               string                 `json:"id"`
	CheckID          string                 `json:"checkId"`
	Type             domain.VerdictType     `json:"type"`
	Message          string                 `json:"message"`
	Severity         domain.Severity        `json:"severity,omitempty"`
	// RuleSeverity is the rule's declared severity; it is restored when an
	// escalated pass is overturned to a fail
	RuleSeverity     domain.Severity        `json:"ruleSeverity,omitempty"`
	Category         string                 `json:"category"`
	Layer            domain.Layer           `json:"layer"`
	File             string                 `json:"file,omitempty"`
	Line             int                    `json:"line,omitempty"`
	ObligationID     string                 `json:"obligationId,omitempty"`
	ArticleReference string                 `json:"articleReference,omitempty"`
	Fix              string                 `json:"fix,omitempty"`
	Priority         int                    `json:"priority,omitempty"`
	Confidence       *int                   `json:"confidence,omitempty"`
	ConfidenceLevel  domain.ConfidenceLevel `json:"confidenceLevel,omitempty"`
	Escalated        bool                   `json:"escalated,omitempty"`
	Fingerprint      string                 `json:"fingerprint"`
}

// IsPass reports whether the finding passed
func (f Finding) IsPass() bool { return f.Type == domain.VerdictPass }

// IsFail reports whether the finding failed
func (f Finding) IsFail() bool { return f.Type == domain.VerdictFail }

// IsSkip reports whether the finding was skipped
func (f Finding) IsSkip() bool { return f.Type == domain.VerdictSkip }

// HasConfidence reports whether confidence metadata is attached
func (f Finding) HasConfidence() bool { return f.Confidence != nil }

// ConfidenceValue returns the confidence, or -1 when none is attached
func (f Finding) ConfidenceValue() int {
	if f.Confidence == nil {
		return -1
	}
	return *f.Confidence
}

// Assemble turns layer outcomes into findings. Outcomes arrive in layer then
// emission order and that order is kept.
func Assemble(outcomes []layer.Outcome) []Finding {
	seen := make(map[string]int, len(outcomes))
	out := make([]Finding, 0, len(outcomes))

	for _, o := range outcomes {
		v := o.Verdict
		n := seen[v.CheckID]
		seen[v.CheckID] = n + 1

		id := v.CheckID
		if n > 0 {
			id = v.CheckID + "#" + strconv.Itoa(n+1)
		}

		f := Finding{
			ID:               id,
			CheckID:          v.CheckID,
			Type:             v.Type,
			Message:          v.Message,
			Severity:         v.Severity,
			RuleSeverity:     o.Meta.Severity,
			Category:         o.Meta.Category,
			Layer:            o.Layer,
			File:             v.File,
			Line:             v.Line,
			ObligationID:     v.ObligationID,
			ArticleReference: v.ArticleReference,
			Fix:              v.Fix,
		}
		if f.IsFail() {
			f.Priority = f.Severity.Priority()
		}
		if o.Confidence != nil {
			c := o.Confidence.Confidence
			f.Confidence = &c
			f.ConfidenceLevel = o.Confidence.Level
		}
		f.Fingerprint = Fingerprint(f.CheckID, f.ObligationID, f.File, n)
		out = append(out, f)
	}
	return out
}

// Fingerprint is a stable identity for a finding across runs. It ignores the
// line and message so that unrelated edits do not change it.
func Fingerprint(checkID, obligationID, file string, occurrence int) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", checkID, obligationID, file, occurrence)
	return fmt.Sprintf("%x", h.Sum(nil)[:16])
}

// Clone returns a deep copy of findings
func Clone(findings []Finding) []Finding {
	out := make([]Finding, len(findings))
	for i, f := range findings {
		if f.Confidence != nil {
			c := *f.Confidence
			f.Confidence = &c
		}
		out[i] = f
	}
	return out
}

// Counts tallies findings by type
type Counts struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Count tallies findings by type
func Count(findings []Finding) Counts {
	var c Counts
	for _, f := range findings {
		c.Total++
		switch f.Type {
		case domain.VerdictPass:
			c.Passed++
		case domain.VerdictFail:
			c.Failed++
		default:
			c.Skipped++
		}
	}
	return c
}
