package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/complyscan/internal/pipeline"
)

var zoneBadge = map[string]string{
	"green":  "🟢",
	"yellow": "🟡",
	"red":    "🔴",
}

// MarkdownFormatter renders a report suitable for pull request comments
type MarkdownFormatter struct {
	opts *Options
}

// Format writes the report as Markdown
func (f *MarkdownFormatter) Format(rep *pipeline.Report) error {
	var b strings.Builder

	b.WriteString("# Compliance scan report\n\n")
	b.WriteString(fmt.Sprintf("- Scan: `%s`\n- Tool: complyscan %s\n- Root: `%s`\n\n", rep.ScanID, rep.Version, rep.Root))

	res := rep.Result
	if res == nil {
		b.WriteString("_No result._\n")
		_, err := io.WriteString(f.opts.Writer, b.String())
		return err
	}
	s := res.Score

	b.WriteString(fmt.Sprintf("## Score: %d/100 %s %s\n\n", s.TotalScore, zoneBadge[string(s.Zone)], s.Zone))
	b.WriteString(fmt.Sprintf("Mode: %s. Checks: %d total, %d passed, %d failed, %d skipped.\n",
		s.Mode, s.TotalChecks, s.PassedChecks, s.FailedChecks, s.SkippedChecks))
	if s.CriticalCapApplied {
		b.WriteString(fmt.Sprintf("\n> **Critical cap applied.** Critical failures: %s\n", strings.Join(s.CriticalFailures, ", ")))
	}
	if cs := s.ConfidenceSummary; cs.Escalated > 0 {
		b.WriteString(fmt.Sprintf("\nEscalated %d findings, %d resolved, oracle cost $%.4f.\n", cs.Escalated, cs.Resolved, cs.OracleCostUSD))
	}

	if len(s.CategoryScores) > 0 {
		b.WriteString("\n## Categories\n\n| Category | Weight | Passed | Score |\n|---|---:|---:|---:|\n")
		for _, c := range s.CategoryScores {
			b.WriteString(fmt.Sprintf("| %s | %.2f | %d/%d | %d |\n", escapeCell(c.Category), c.Weight, c.Passed, c.Total, c.Score))
		}
	}

	failures := Failures(res.Findings)
	b.WriteString(fmt.Sprintf("\n## Failures (%d)\n\n", len(failures)))
	if len(failures) == 0 {
		b.WriteString("No failing checks.\n")
	} else {
		b.WriteString("| Severity | Check | Location | Message | Confidence |\n|---|---|---|---|---:|\n")
		for _, fd := range failures {
			conf := ""
			if fd.HasConfidence() {
				conf = fmt.Sprintf("%d %s", *fd.Confidence, fd.ConfidenceLevel)
			}
			loc := location(fd)
			if loc != "" {
				loc = "`" + loc + "`"
			}
			msg := fd.Message
			if fd.Fix != "" {
				msg += " Fix: " + fd.Fix
			}
			b.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s | %s |\n",
				fd.Severity, fd.CheckID, loc, escapeCell(msg), conf))
		}
	}

	if f.opts.Verbose {
		b.WriteString("\n<details><summary>Passing and skipped checks</summary>\n\n")
		for _, fd := range res.Findings {
			if fd.IsFail() {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s `%s`: %s\n", fd.Type, fd.CheckID, fd.Message))
		}
		b.WriteString("\n</details>\n")
	}

	_, err := io.WriteString(f.opts.Writer, b.String())
	return err
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
