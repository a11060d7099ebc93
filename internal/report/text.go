package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/finding"
	"github.com/felixgeelhaar/complyscan/internal/pipeline"
)

// Styles holds the terminal styles of the text report
type Styles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Score   lipgloss.Style
}

// newStyles binds the styles to w so color is only emitted to terminals
func newStyles(w io.Writer, noColor bool) Styles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		plain := r.NewStyle()
		return Styles{
			Title: plain, Section: plain, Error: plain, Success: plain,
			Warning: plain, Muted: plain, Score: plain,
		}
	}
	return Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		Section: r.NewStyle().
			Bold(true).
			Underline(true),
		Error: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Muted: r.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Score: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2),
	}
}

// zone picks the style for a zone
func (s Styles) zone(z domain.Zone) lipgloss.Style {
	switch z {
	case domain.ZoneGreen:
		return s.Success
	case domain.ZoneYellow:
		return s.Warning
	default:
		return s.Error
	}
}

// TextFormatter renders a human-readable terminal report
type TextFormatter struct {
	opts   *Options
	styles Styles
}

// Format writes the report as styled text
func (f *TextFormatter) Format(rep *pipeline.Report) error {
	var b strings.Builder
	st := f.styles

	b.WriteString(st.Title.Render(fmt.Sprintf("complyscan %s", rep.Version)))
	b.WriteString("\n")
	b.WriteString(st.Muted.Render(fmt.Sprintf("scan %s  root %s  %dms", rep.ScanID, rep.Root, rep.DurationMS)))
	b.WriteString("\n\n")

	res := rep.Result
	if res == nil {
		b.WriteString("No result.\n")
		_, err := io.WriteString(f.opts.Writer, b.String())
		return err
	}
	s := res.Score

	headline := fmt.Sprintf("Score %d/100  %s", s.TotalScore, st.zone(s.Zone).Render(strings.ToUpper(string(s.Zone))))
	b.WriteString(st.Score.Render(headline))
	b.WriteString("\n")
	b.WriteString(st.Muted.Render(fmt.Sprintf("mode %s", s.Mode)))
	b.WriteString("\n")
	if s.CriticalCapApplied {
		b.WriteString(st.Error.Render("Critical cap applied"))
		if len(s.CriticalFailures) > 0 {
			b.WriteString(": " + strings.Join(s.CriticalFailures, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Checks: %d total, %d passed, %d failed, %d skipped\n",
		s.TotalChecks, s.PassedChecks, s.FailedChecks, s.SkippedChecks))

	cs := s.ConfidenceSummary
	if cs.Escalated > 0 {
		b.WriteString(fmt.Sprintf("Escalated: %d, resolved %d, oracle cost $%.4f\n", cs.Escalated, cs.Resolved, cs.OracleCostUSD))
	}

	failures := Failures(res.Findings)
	b.WriteString("\n")
	b.WriteString(st.Section.Render(fmt.Sprintf("Failures (%d)", len(failures))))
	b.WriteString("\n")
	if len(failures) == 0 {
		b.WriteString(st.Success.Render("  No failing checks"))
		b.WriteString("\n")
	}
	for _, fd := range failures {
		f.writeFinding(&b, fd)
	}

	if len(s.CategoryScores) > 0 {
		b.WriteString("\n")
		b.WriteString(st.Section.Render("Categories"))
		b.WriteString("\n")
		for _, c := range s.CategoryScores {
			b.WriteString(fmt.Sprintf("  %-24s weight %.2f  %d/%d  %3d\n", c.Category, c.Weight, c.Passed, c.Total, c.Score))
		}
	}

	if f.opts.Verbose {
		b.WriteString("\n")
		b.WriteString(st.Section.Render("All findings"))
		b.WriteString("\n")
		for _, fd := range res.Findings {
			if fd.IsFail() {
				continue
			}
			b.WriteString(fmt.Sprintf("  %-4s %-32s %s\n", strings.ToUpper(string(fd.Type)), fd.CheckID, st.Muted.Render(fd.Message)))
		}
	}

	if len(res.Deps.AISDKs) > 0 {
		b.WriteString("\n")
		b.WriteString(st.Section.Render("AI SDKs"))
		b.WriteString("\n")
		for _, d := range res.Deps.AISDKs {
			b.WriteString(fmt.Sprintf("  %s %s %s\n", d.Name, d.Version, st.Muted.Render("("+d.Manifest+")")))
		}
	}

	_, err := io.WriteString(f.opts.Writer, b.String())
	return err
}

func (f *TextFormatter) writeFinding(b *strings.Builder, fd finding.Finding) {
	st := f.styles
	sev := strings.ToUpper(string(fd.Severity))
	if sev == "" {
		sev = "FAIL"
	}
	tag := st.Warning.Render("[" + sev + "]")
	if fd.Severity == domain.SeverityCritical || fd.Severity == domain.SeverityHigh {
		tag = st.Error.Render("[" + sev + "]")
	}

	b.WriteString(fmt.Sprintf("  %s %s", tag, fd.CheckID))
	if loc := location(fd); loc != "" {
		b.WriteString("  " + st.Muted.Render(loc))
	}
	b.WriteString("\n")
	b.WriteString("      " + fd.Message + "\n")
	if fd.ArticleReference != "" {
		b.WriteString("      " + st.Muted.Render(fd.ArticleReference) + "\n")
	}
	if fd.Fix != "" {
		b.WriteString("      Fix: " + fd.Fix + "\n")
	}
	if fd.HasConfidence() {
		line := fmt.Sprintf("      confidence %d %s", *fd.Confidence, fd.ConfidenceLevel)
		if fd.Escalated {
			line += " (escalated)"
		}
		b.WriteString(st.Muted.Render(line) + "\n")
	}
}

// Failures returns the failing findings ordered by priority, then check id.
// The input order breaks remaining ties.
func Failures(findings []finding.Finding) []finding.Finding {
	var out []finding.Finding
	for _, f := range findings {
		if f.IsFail() {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priorityRank(out[i]), priorityRank(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i].CheckID < out[j].CheckID
	})
	return out
}

// priorityRank sorts unset priorities last
func priorityRank(f finding.Finding) int {
	if f.Priority <= 0 {
		return 1 << 30
	}
	return f.Priority
}

func location(f finding.Finding) string {
	if f.File == "" {
		return ""
	}
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return f.File
}
