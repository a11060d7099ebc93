package escalation

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/finding"
)

// Snippet is one file region sent to the oracle. Lines are 1-based and inclusive.
type Snippet struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Content   string `json:"-"`
	Relevance int    `json:"relevance"`
}

// SnippetLimits bounds oracle input size
type SnippetLimits struct {
	MaxSnippets int
	MaxLines    int
	MaxBytes    int
}

// DefaultSnippetLimits allows five regions of up to 500 lines and 64 KiB in total
var DefaultSnippetLimits = SnippetLimits{MaxSnippets: 5, MaxLines: 500, MaxBytes: 64 << 10}

const (
	sameFileBonus = 100
	leadContext   = 20
)

type candidate struct {
	file  check.File
	score int
	focus int // 0-based line the region is built around
}

// ExtractSnippets selects the regions of fs most relevant to f. The file the
// finding points at ranks first; other files rank by how many lines mention
// the finding's keywords. Ties break by path.
func ExtractSnippets(f finding.Finding, fs check.FileSet, limits SnippetLimits) []Snippet {
	limits = limits.withDefaults()
	keywords := snippetKeywords(f)

	var cands []candidate
	for _, file := range fs.Files() {
		lines := file.Lines()
		hits, first := 0, -1
		for i, line := range lines {
			if lineMentions(line, keywords) {
				hits++
				if first < 0 {
					first = i
				}
			}
		}

		score := hits
		focus := first
		if file.Path == f.File {
			score += sameFileBonus
			if f.Line > 0 {
				focus = f.Line - 1
			}
		}
		if score == 0 {
			continue
		}
		if focus < 0 {
			focus = 0
		}
		cands = append(cands, candidate{file: file, score: score, focus: focus})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].file.Path < cands[j].file.Path
	})

	var out []Snippet
	budget := limits.MaxBytes
	for _, c := range cands {
		if len(out) == limits.MaxSnippets || budget <= 0 {
			break
		}
		s := region(c, limits.MaxLines)
		if len(s.Content) > budget {
			s = truncate(s, budget)
		}
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		budget -= len(s.Content)
		out = append(out, s)
	}
	return out
}

func (l SnippetLimits) withDefaults() SnippetLimits {
	if l.MaxSnippets <= 0 {
		l.MaxSnippets = DefaultSnippetLimits.MaxSnippets
	}
	if l.MaxLines <= 0 || l.MaxLines > DefaultSnippetLimits.MaxLines {
		l.MaxLines = DefaultSnippetLimits.MaxLines
	}
	if l.MaxBytes <= 0 {
		l.MaxBytes = DefaultSnippetLimits.MaxBytes
	}
	return l
}

// region takes up to maxLines lines starting a little above the focus line
func region(c candidate, maxLines int) Snippet {
	lines := c.file.Lines()
	if c.focus >= len(lines) {
		c.focus = len(lines) - 1
	}
	start := c.focus - leadContext
	if start < 0 {
		start = 0
	}
	end := start + maxLines
	if end > len(lines) {
		end = len(lines)
	}
	return Snippet{
		File:      c.file.Path,
		StartLine: start + 1,
		EndLine:   end,
		Content:   strings.Join(lines[start:end], "\n"),
		Relevance: c.score,
	}
}

// truncate cuts s to at most n bytes on a line boundary, or on a rune
// boundary when the first line alone is longer than n
func truncate(s Snippet, n int) Snippet {
	cut := strings.LastIndexByte(s.Content[:n], '\n')
	if cut < 0 {
		cut = n
		for cut > 0 && !utf8.RuneStart(s.Content[cut]) {
			cut--
		}
	}
	s.Content = s.Content[:cut]
	s.EndLine = s.StartLine + strings.Count(s.Content, "\n")
	return s
}

// snippetKeywords are the prompt family keywords plus the check id's own words
func snippetKeywords(f finding.Finding) []string {
	kws := append([]string{}, keywordsFor(SelectPromptType(f))...)
	for _, tok := range tokenize(f.CheckID) {
		if len(tok) > 2 && tok != "ai" {
			kws = append(kws, tok)
		}
	}
	return kws
}

func lineMentions(line string, keywords []string) bool {
	l := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(l, kw) {
			return true
		}
	}
	return false
}
