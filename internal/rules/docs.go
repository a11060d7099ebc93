package rules

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/confidence"
	"github.com/felixgeelhaar/complyscan/internal/layer"
)

// section is a required heading; any alias satisfies it
type section struct {
	name    string
	aliases []string
}

// structure is an L2 rule: a document must exist and carry required sections
type structure struct {
	meta     check.Meta
	what     string
	fix      string
	patterns []string
	sections []section
	// optional documents are skipped rather than failed when absent
	optional bool
}

func (s *structure) Meta() check.Meta { return s.meta }

func (s *structure) Analyze(fs check.FileSet) layer.DocStatus {
	docs := fs.Match(s.patterns...)
	if len(docs) == 0 {
		if s.optional {
			return layer.DocStatus{SkipReason: fmt.Sprintf("no %s in project", s.what)}
		}
		return layer.DocStatus{
			Status:  confidence.DocAbsent,
			Message: fmt.Sprintf("no %s found", s.what),
			Fix:     s.fix,
		}
	}

	// The most complete candidate wins; ties go to the first path
	var best check.File
	var bestMissing []string
	for i, d := range docs {
		missing := s.missing(d.Content)
		if i == 0 || len(missing) < len(bestMissing) {
			best, bestMissing = d, missing
		}
	}

	switch {
	case len(bestMissing) == 0:
		return layer.DocStatus{
			Document: best.Path,
			Status:   confidence.DocPresent,
			Message:  fmt.Sprintf("%s has all %d required sections", best.Path, len(s.sections)),
		}
	case len(bestMissing) == len(s.sections):
		return layer.DocStatus{
			Document: best.Path,
			Status:   confidence.DocAbsent,
			Missing:  bestMissing,
			Message:  fmt.Sprintf("%s has none of the required sections", best.Path),
			Fix:      s.fix,
		}
	default:
		return layer.DocStatus{
			Document: best.Path,
			Status:   confidence.DocPartial,
			Missing:  bestMissing,
			Message:  fmt.Sprintf("%s is missing sections: %s", best.Path, strings.Join(bestMissing, ", ")),
			Fix:      s.fix,
		}
	}
}

func (s *structure) missing(content string) []string {
	headings := headings(content)
	var missing []string
	for _, sec := range s.sections {
		if !sec.in(headings) {
			missing = append(missing, sec.name)
		}
	}
	return missing
}

func (sec section) in(headings []string) bool {
	for _, h := range headings {
		for _, a := range sec.aliases {
			if strings.Contains(h, a) {
				return true
			}
		}
	}
	return false
}

// headings returns the lowercased markdown ATX headings of content
func headings(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		h := strings.TrimSpace(strings.TrimLeft(line, "#"))
		if h != "" {
			out = append(out, strings.ToLower(h))
		}
	}
	return out
}
