package report

import (
	"encoding/json"

	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/finding"
	"github.com/felixgeelhaar/complyscan/internal/pipeline"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

	// fingerprintKey versions the partial fingerprint so a future scheme can coexist
	fingerprintKey = "complyscan/v1"
)

// SARIF represents a SARIF 2.1.0 report structure
type SARIF struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single run in a SARIF report
type SARIFRun struct {
	Tool       SARIFTool      `json:"tool"`
	Results    []SARIFResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

// SARIFTool describes the tool that generated the report
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver contains tool metadata
type SARIFDriver struct {
	Name            string      `json:"name"`
	InformationURI  string      `json:"informationUri,omitempty"`
	SemanticVersion string      `json:"semanticVersion,omitempty"`
	Rules           []SARIFRule `json:"rules,omitempty"`
}

// SARIFRule describes one check
type SARIFRule struct {
	ID               string         `json:"id"`
	ShortDescription SARIFMessage   `json:"shortDescription"`
	HelpURI          string         `json:"helpUri,omitempty"`
	Properties       map[string]any `json:"properties,omitempty"`
}

// SARIFResult represents a single finding
type SARIFResult struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level"` // "error", "warning", "note"
	Message             SARIFMessage      `json:"message"`
	Locations           []SARIFLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          map[string]any    `json:"properties,omitempty"`
}

// SARIFMessage contains the finding message
type SARIFMessage struct {
	Text string `json:"text"`
}

// SARIFLocation describes where the finding occurred
type SARIFLocation struct {
	PhysicalLocation SARIFPhysicalLocation `json:"physicalLocation"`
}

// SARIFPhysicalLocation provides file-level location
type SARIFPhysicalLocation struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
	Region           *SARIFRegion          `json:"region,omitempty"`
}

// SARIFArtifactLocation identifies the artifact
type SARIFArtifactLocation struct {
	URI string `json:"uri"`
}

// SARIFRegion narrows a location to a line
type SARIFRegion struct {
	StartLine int `json:"startLine"`
}

// SARIFFormatter writes failing findings as SARIF
type SARIFFormatter struct {
	opts *Options
}

// Format writes the report as SARIF
func (f *SARIFFormatter) Format(rep *pipeline.Report) error {
	encoder := json.NewEncoder(f.opts.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ToSARIF(rep))
}

// ToSARIF converts a report. Only failing findings become results.
func ToSARIF(rep *pipeline.Report) *SARIF {
	run := SARIFRun{
		Tool: SARIFTool{
			Driver: SARIFDriver{
				Name:            "complyscan",
				InformationURI:  "https://github.com/felixgeelhaar/complyscan",
				SemanticVersion: rep.Version,
			},
		},
		Results: []SARIFResult{},
	}

	if rep.Result != nil {
		seen := map[string]bool{}
		for _, f := range rep.Result.Findings {
			if !f.IsFail() {
				continue
			}
			if !seen[f.CheckID] {
				seen[f.CheckID] = true
				run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule(f))
			}
			run.Results = append(run.Results, sarifResult(f))
		}

		s := rep.Result.Score
		run.Properties = map[string]any{
			"score":              s.TotalScore,
			"zone":               s.Zone,
			"mode":               s.Mode,
			"criticalCapApplied": s.CriticalCapApplied,
		}
	}

	return &SARIF{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs:    []SARIFRun{run},
	}
}

func sarifRule(f finding.Finding) SARIFRule {
	r := SARIFRule{
		ID:               f.CheckID,
		ShortDescription: SARIFMessage{Text: f.CheckID},
		Properties: map[string]any{
			"category": f.Category,
			"layer":    f.Layer.String(),
		},
	}
	if f.ArticleReference != "" {
		r.ShortDescription.Text = f.CheckID + " (" + f.ArticleReference + ")"
		r.Properties["article"] = f.ArticleReference
	}
	return r
}

func sarifResult(f finding.Finding) SARIFResult {
	msg := f.Message
	if f.Fix != "" {
		msg += " Fix: " + f.Fix
	}

	res := SARIFResult{
		RuleID:              f.CheckID,
		Level:               sarifLevel(f.Severity),
		Message:             SARIFMessage{Text: msg},
		PartialFingerprints: map[string]string{fingerprintKey: f.Fingerprint},
		Properties: map[string]any{
			"severity": f.Severity,
			"category": f.Category,
			"priority": f.Priority,
		},
	}
	if f.HasConfidence() {
		res.Properties["confidence"] = *f.Confidence
		res.Properties["confidenceLevel"] = f.ConfidenceLevel
	}
	if f.Escalated {
		res.Properties["escalated"] = true
	}
	if f.ObligationID != "" {
		res.Properties["obligationId"] = f.ObligationID
	}

	if f.File != "" {
		loc := SARIFLocation{PhysicalLocation: SARIFPhysicalLocation{
			ArtifactLocation: SARIFArtifactLocation{URI: f.File},
		}}
		if f.Line > 0 {
			loc.PhysicalLocation.Region = &SARIFRegion{StartLine: f.Line}
		}
		res.Locations = []SARIFLocation{loc}
	}
	return res
}

func sarifLevel(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical, domain.SeverityHigh:
		return "error"
	case domain.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
