package check

import (
	"github.com/felixgeelhaar/complyscan/internal/domain"
)

// Verdict is the pass/fail/skip outcome a Unit emits for one rule.
// Build it with Pass, Fail or Skip; for skips Message holds the reason.
type Verdict struct {
	Type             domain.VerdictType `json:"type"`
	CheckID          string             `json:"checkId"`
	Message          string             `json:"message"`
	Severity         domain.Severity    `json:"severity,omitempty"`
	ObligationID     string             `json:"obligationId,omitempty"`
	ArticleReference string             `json:"articleReference,omitempty"`
	Fix              string             `json:"fix,omitempty"`
	File             string             `json:"file,omitempty"`
	Line             int                `json:"line,omitempty"`
}

// Pass creates a passing verdict
func Pass(checkID, message string) Verdict {
	return Verdict{Type: domain.VerdictPass, CheckID: checkID, Message: message}
}

// Fail creates a failing verdict
func Fail(checkID, message string, severity domain.Severity) Verdict {
	return Verdict{Type: domain.VerdictFail, CheckID: checkID, Message: message, Severity: severity}
}

// Skip creates a verdict for a rule that did not apply or could not run
func Skip(checkID, reason string) Verdict {
	return Verdict{Type: domain.VerdictSkip, CheckID: checkID, Message: reason}
}

// WithObligation attaches the regulatory obligation and article
func (v Verdict) WithObligation(obligationID, article string) Verdict {
	v.ObligationID = obligationID
	v.ArticleReference = article
	return v
}

// WithFix attaches a remediation hint
func (v Verdict) WithFix(fix string) Verdict {
	v.Fix = fix
	return v
}

// At attaches a source location
func (v Verdict) At(file string, line int) Verdict {
	v.File = file
	v.Line = line
	return v
}

// IsSkip reports whether the verdict is a skip
func (v Verdict) IsSkip() bool {
	return v.Type == domain.VerdictSkip
}

// Reason returns the skip reason; empty for pass and fail
func (v Verdict) Reason() string {
	if v.IsSkip() {
		return v.Message
	}
	return ""
}

// normalize fills blanks from the unit's metadata and rejects malformed verdicts.
func (v Verdict) normalize(meta Meta) (Verdict, bool) {
	if err := v.Type.Validate(); err != nil {
		return Verdict{}, false
	}
	if v.CheckID == "" {
		v.CheckID = meta.ID
	}
	if v.IsSkip() {
		v.Severity = ""
		return v, true
	}
	if v.ObligationID == "" {
		v.ObligationID = meta.ObligationID
	}
	if v.ArticleReference == "" {
		v.ArticleReference = meta.Article
	}
	if v.Type == domain.VerdictFail {
		if v.Severity == "" {
			v.Severity = meta.Severity
		}
		if v.Severity.Validate() != nil {
			v.Severity = domain.SeverityMedium
		}
	} else {
		v.Severity = domain.SeverityInfo
	}
	return v, true
}

// Normalize applies the unit's defaults to every verdict. A malformed verdict
// becomes a skip so a broken rule never yields an unreadable result.
func Normalize(meta Meta, verdicts []Verdict) []Verdict {
	out := make([]Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		nv, ok := v.normalize(meta)
		if !ok {
			out = append(out, Skip(meta.ID, "rule failed: invalid verdict type "+string(v.Type)))
			continue
		}
		out = append(out, nv)
	}
	return out
}
