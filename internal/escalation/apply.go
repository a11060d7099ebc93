package escalation

import (
	"github.com/felixgeelhaar/complyscan/internal/confidence"
	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/finding"
)

// ApplyResults returns a copy of findings with decisive oracle verdicts
// applied. An uncertain result leaves its finding exactly as the layers
// classified it. A pass downgrades severity to info; a pass overturned to a
// fail takes the rule's declared severity back.
func ApplyResults(findings []finding.Finding, results []Result) []finding.Finding {
	out := finding.Clone(findings)

	byID := make(map[string]Result, len(results))
	for _, r := range results {
		byID[r.FindingID] = r
	}

	model := confidence.DefaultModel()
	for i := range out {
		r, ok := byID[out[i].ID]
		if !ok || r.Verdict == VerdictUncertain {
			continue
		}

		f := &out[i]
		c := confidence.Clamp(r.NewConfidence)
		f.Confidence = &c
		f.ConfidenceLevel = r.NewLevel
		if f.ConfidenceLevel == "" {
			f.ConfidenceLevel = model.Level(c)
		}
		f.Escalated = true
		wasPass := f.IsPass()

		switch r.Verdict {
		case VerdictPass:
			f.Type = domain.VerdictPass
			f.Severity = domain.SeverityInfo
			f.Priority = 0
		case VerdictFail:
			f.Type = domain.VerdictFail
			if wasPass {
				f.Severity = f.RuleSeverity
				if f.Severity.Validate() != nil {
					f.Severity = domain.SeverityMedium
				}
			}
			f.Priority = f.Severity.Priority()
		}
	}
	return out
}
