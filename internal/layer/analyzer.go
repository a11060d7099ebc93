package layer

import (
	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/confidence"
)

// DocStatus is what an L2 analyzer reports about one required document
type DocStatus struct {
	// Document is the path that was inspected; empty when none was found
	Document string
	Status   confidence.DocPresence
	// Missing lists required sections that were not found
	Missing []string
	Message string
	Fix     string
	// SkipReason, when set, means the analyzer did not apply
	SkipReason string
}

// DocAnalyzer is an L2 document-structure check
type DocAnalyzer interface {
	check.Describer
	Analyze(fs check.FileSet) DocStatus
}

// ConfigStatus is one L3 status an analyzer derived from dependency facts
type ConfigStatus struct {
	Status confidence.ConfigStatus
	// Explicitness in [0,1] grades how explicit the evidence is
	Explicitness float64
	Message      string
	Fix          string
	File         string
	Line         int
	SkipReason   string
}

// DepResult is what an L3 analyzer returns: the facts it resolved and the
// statuses it derived from them. Facts from all analyzers are merged into
// the DepReport handed to L4.
type DepResult struct {
	Facts    DepReport
	Statuses []ConfigStatus
}

// DepAnalyzer is an L3 dependency/config check
type DepAnalyzer interface {
	check.Describer
	Analyze(fs check.FileSet) DepResult
}

// PatternResult is one L4 pattern observation. Matched means evidence of
// compliance was found.
type PatternResult struct {
	Matched      bool
	Specificity  confidence.Specificity
	Corroborated bool
	Message      string
	Fix          string
	File         string
	Line         int
	SkipReason   string
}

// PatternUnit is an L4 cross-referencing check. It sees the merged L3 facts.
type PatternUnit interface {
	check.Describer
	Match(fs check.FileSet, deps DepReport) []PatternResult
}
