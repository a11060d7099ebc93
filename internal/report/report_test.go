package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/finding"
	"github.com/felixgeelhaar/complyscan/internal/pipeline"
	"github.com/felixgeelhaar/complyscan/internal/scoring"
)

func intPtr(v int) *int { return &v }

func sampleReport() *pipeline.Report {
	findings := []finding.Finding{
		{
			ID: "model-card", CheckID: "model-card", Type: domain.VerdictPass,
			Message: "model card present", Category: "transparency", Layer: domain.LayerFilePresence,
			Confidence: intPtr(95), ConfidenceLevel: domain.LevelPass, Fingerprint: "fp-pass",
		},
		{
			ID: "risk-doc", CheckID: "risk-doc", Type: domain.VerdictFail,
			Message: "risk assessment missing | incomplete", Severity: domain.SeverityMedium,
			Category: "risk", Layer: domain.LayerDocStructure, File: "docs/risk.md",
			ArticleReference: "Art. 9", Fix: "Add a risk section", Priority: 3,
			Confidence: intPtr(10), ConfidenceLevel: domain.LevelFail, Fingerprint: "fp-risk",
		},
		{
			ID: "logging", CheckID: "logging", Type: domain.VerdictFail,
			Message: "no audit logging", Severity: domain.SeverityCritical,
			Category: "record-keeping", Layer: domain.LayerPattern, File: "app.py", Line: 12,
			ObligationID: "record-keeping", Priority: 1,
			Confidence: intPtr(20), ConfidenceLevel: domain.LevelLikelyFail, Escalated: true,
			Fingerprint: "fp-log",
		},
		{
			ID: "dataset", CheckID: "dataset", Type: domain.VerdictSkip,
			Message: "no dataset", Category: "data", Layer: domain.LayerDependency, Fingerprint: "fp-skip",
		},
	}

	return &pipeline.Report{
		ScanID:     "scan-1",
		Tool:       "complyscan",
		Version:    "1.2.3",
		Root:       "/src/app",
		StartedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		DurationMS: 42,
		Result: &pipeline.Result{
			Findings: findings,
			Score: scoring.ScoreBreakdown{
				TotalScore:         33,
				Zone:               domain.ZoneRed,
				Mode:               scoring.ModeWeighted,
				CriticalCapApplied: true,
				CriticalFailures:   []string{"logging"},
				CategoryScores: []scoring.CategoryScore{
					{Category: "transparency", Weight: 0.5, Passed: 1, Total: 1, Score: 100},
				},
				TotalChecks: 4, PassedChecks: 1, FailedChecks: 2, SkippedChecks: 1,
				ConfidenceSummary: scoring.ConfidenceSummary{Escalated: 1, Resolved: 1, OracleCostUSD: 0.0021},
			},
		},
	}
}

func render(t *testing.T, format string, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	opts.Writer = &buf
	f, err := NewFormatter(format, &opts)
	if err != nil {
		t.Fatalf("NewFormatter(%q) error = %v", format, err)
	}
	if err := f.Format(sampleReport()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"json format", "json", false},
		{"yaml format", "yaml", false},
		{"sarif format", "sarif", false},
		{"markdown format", "markdown", false},
		{"md alias", "md", false},
		{"text format", "text", false},
		{"empty format defaults to text", "", false},
		{"unknown format", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFormatter(tt.format, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	out := render(t, "json", Options{})

	var got pipeline.Report
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.ScanID != "scan-1" || len(got.Result.Findings) != 4 {
		t.Errorf("unexpected decoded report: %+v", got)
	}
	if !strings.Contains(out, "\n  ") {
		t.Error("expected indented JSON")
	}

	compact := render(t, "json", Options{Compact: true})
	if strings.Count(strings.TrimSpace(compact), "\n") != 0 {
		t.Error("compact JSON should be a single line")
	}
}

func TestYAMLFormatterUsesJSONFieldNames(t *testing.T) {
	out := render(t, "yaml", Options{})

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if doc["scanId"] != "scan-1" {
		t.Errorf("scanId = %v, want scan-1", doc["scanId"])
	}
	if !strings.Contains(out, "totalScore: 33") {
		t.Errorf("expected totalScore in YAML output:\n%s", out)
	}
}

func TestToSARIF(t *testing.T) {
	s := ToSARIF(sampleReport())

	if s.Version != "2.1.0" {
		t.Errorf("version = %s, want 2.1.0", s.Version)
	}
	if len(s.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(s.Runs))
	}
	run := s.Runs[0]

	if len(run.Results) != 2 {
		t.Fatalf("results = %d, want only the 2 failures", len(run.Results))
	}
	if len(run.Tool.Driver.Rules) != 2 {
		t.Errorf("rules = %d, want 2", len(run.Tool.Driver.Rules))
	}
	if run.Tool.Driver.SemanticVersion != "1.2.3" {
		t.Errorf("semanticVersion = %s", run.Tool.Driver.SemanticVersion)
	}

	risk := run.Results[0]
	if risk.RuleID != "risk-doc" || risk.Level != "warning" {
		t.Errorf("first result = %s/%s, want risk-doc/warning", risk.RuleID, risk.Level)
	}
	if risk.PartialFingerprints[fingerprintKey] != "fp-risk" {
		t.Errorf("fingerprint = %v", risk.PartialFingerprints)
	}
	if risk.Locations[0].PhysicalLocation.Region != nil {
		t.Error("file-level finding should have no region")
	}
	if !strings.Contains(risk.Message.Text, "Fix: Add a risk section") {
		t.Errorf("message should carry the fix: %q", risk.Message.Text)
	}

	logging := run.Results[1]
	if logging.Level != "error" {
		t.Errorf("critical level = %s, want error", logging.Level)
	}
	if logging.Locations[0].PhysicalLocation.Region.StartLine != 12 {
		t.Error("expected startLine 12")
	}
	if logging.Properties["confidence"] != 20 || logging.Properties["escalated"] != true {
		t.Errorf("properties = %v", logging.Properties)
	}
	if run.Properties["zone"] != domain.ZoneRed {
		t.Errorf("run zone = %v", run.Properties["zone"])
	}
}

func TestSARIFFormatterEmptyResults(t *testing.T) {
	rep := sampleReport()
	rep.Result.Findings = rep.Result.Findings[:1]

	var buf bytes.Buffer
	f, _ := NewFormatter("sarif", &Options{Writer: &buf})
	if err := f.Format(rep); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Errorf("a clean scan should emit an empty results array:\n%s", buf.String())
	}
}

func TestSARIFLevel(t *testing.T) {
	tests := []struct {
		sev  domain.Severity
		want string
	}{
		{domain.SeverityCritical, "error"},
		{domain.SeverityHigh, "error"},
		{domain.SeverityMedium, "warning"},
		{domain.SeverityLow, "note"},
		{domain.SeverityInfo, "note"},
		{"", "note"},
	}
	for _, tt := range tests {
		if got := sarifLevel(tt.sev); got != tt.want {
			t.Errorf("sarifLevel(%q) = %s, want %s", tt.sev, got, tt.want)
		}
	}
}

func TestTextFormatter(t *testing.T) {
	out := render(t, "text", Options{NoColor: true})

	for _, want := range []string{
		"complyscan 1.2.3",
		"Score 33/100",
		"RED",
		"Critical cap applied: logging",
		"Checks: 4 total, 1 passed, 2 failed, 1 skipped",
		"Failures (2)",
		"[CRITICAL] logging",
		"app.py:12",
		"Fix: Add a risk section",
		"(escalated)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	// priority 1 sorts before priority 3
	if strings.Index(out, "[CRITICAL] logging") > strings.Index(out, "[MEDIUM] risk-doc") {
		t.Error("failures should be ordered by priority")
	}
	if strings.Contains(out, "All findings") {
		t.Error("passing findings should only be listed in verbose mode")
	}

	verbose := render(t, "text", Options{NoColor: true, Verbose: true})
	if !strings.Contains(verbose, "model-card") || !strings.Contains(verbose, "SKIP") {
		t.Errorf("verbose output should list passing and skipped checks:\n%s", verbose)
	}
}

func TestMarkdownFormatter(t *testing.T) {
	out := render(t, "markdown", Options{})

	for _, want := range []string{
		"# Compliance scan report",
		"## Score: 33/100 🔴 red",
		"**Critical cap applied.**",
		"| transparency | 0.50 | 1/1 | 100 |",
		"## Failures (2)",
		"`app.py:12`",
		`risk assessment missing \| incomplete`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestFailuresOrdering(t *testing.T) {
	in := []finding.Finding{
		{CheckID: "b", Type: domain.VerdictFail, Priority: 2},
		{CheckID: "pass", Type: domain.VerdictPass},
		{CheckID: "z", Type: domain.VerdictFail},
		{CheckID: "a", Type: domain.VerdictFail, Priority: 2},
		{CheckID: "c", Type: domain.VerdictFail, Priority: 1},
	}

	var ids []string
	for _, f := range Failures(in) {
		ids = append(ids, f.CheckID)
	}
	if got := strings.Join(ids, ","); got != "c,a,b,z" {
		t.Errorf("Failures order = %s, want c,a,b,z", got)
	}
}
