package escalation

import "github.com/felixgeelhaar/complyscan/internal/finding"

// Band is the closed confidence interval whose findings are escalated
type Band struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// DefaultBand is [40,70]
var DefaultBand = Band{Low: 40, High: 70}

// Contains reports whether c lies in the closed band
func (b Band) Contains(c int) bool {
	return c >= b.Low && c <= b.High
}

// IsUncertain reports whether f should be escalated. Skips and findings
// without confidence never are; low confidence is a confident fail, not
// uncertainty.
func IsUncertain(f finding.Finding, b Band) bool {
	if f.IsSkip() || !f.HasConfidence() {
		return false
	}
	return b.Contains(*f.Confidence)
}
