package rules

import (
	"fmt"
	"regexp"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/confidence"
	"github.com/felixgeelhaar/complyscan/internal/layer"
)

var sourceExts = []string{
	".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".vue", ".svelte",
	".html", ".rs", ".java", ".kt", ".rb", ".php", ".cs", ".swift",
}

// pattern is an L4 rule built from regex families.
//
// A narrow hit is unambiguous evidence of compliance. A broad hit is weaker
// evidence. When neither hits, a context hit (the code area the obligation is
// about exists) turns the miss into a broad one worth escalating; no context
// at all is a confident, narrow miss.
type pattern struct {
	meta    check.Meta
	what    string
	fix     string
	narrow  []*regexp.Regexp
	broad   []*regexp.Regexp
	context []*regexp.Regexp

	// requireAISDK skips the rule for projects without an AI SDK dependency
	requireAISDK bool
	// skipWithoutContext skips instead of failing when no context exists
	skipWithoutContext bool
	// corroborate reports whether L3 facts support the verdict
	corroborate func(layer.DepReport) bool
}

func (p *pattern) Meta() check.Meta { return p.meta }

type hit struct {
	file string
	line int
}

func (p *pattern) Match(fs check.FileSet, deps layer.DepReport) []layer.PatternResult {
	if p.requireAISDK && !deps.HasAISDK() {
		return []layer.PatternResult{{SkipReason: skipNoAISDK}}
	}

	files := fs.WithExt(sourceExts...)
	if len(files) == 0 {
		return []layer.PatternResult{{SkipReason: "no source files"}}
	}

	corroborated := p.corroborate != nil && p.corroborate(deps)

	if h, ok := find(files, p.narrow); ok {
		return []layer.PatternResult{{
			Matched:      true,
			Specificity:  confidence.SpecificityNarrow,
			Corroborated: corroborated,
			Message:      fmt.Sprintf("%s found at %s:%d", p.what, h.file, h.line),
			File:         h.file,
			Line:         h.line,
		}}
	}
	if h, ok := find(files, p.broad); ok {
		return []layer.PatternResult{{
			Matched:      true,
			Specificity:  confidence.SpecificityBroad,
			Corroborated: corroborated,
			Message:      fmt.Sprintf("possible %s at %s:%d", p.what, h.file, h.line),
			File:         h.file,
			Line:         h.line,
		}}
	}

	if h, ok := find(files, p.context); ok {
		return []layer.PatternResult{{
			Specificity:  confidence.SpecificityBroad,
			Corroborated: corroborated,
			Message:      fmt.Sprintf("no %s found near %s:%d", p.what, h.file, h.line),
			Fix:          p.fix,
			File:         h.file,
			Line:         h.line,
		}}
	}
	if p.skipWithoutContext {
		return []layer.PatternResult{{SkipReason: fmt.Sprintf("no code that %s applies to", p.what)}}
	}
	return []layer.PatternResult{{
		Specificity:  confidence.SpecificityNarrow,
		Corroborated: corroborated,
		Message:      fmt.Sprintf("no %s found in %d source files", p.what, len(files)),
		Fix:          p.fix,
	}}
}

// find returns the first line, in path then line order, that any re matches
func find(files []check.File, res []*regexp.Regexp) (hit, bool) {
	if len(res) == 0 {
		return hit{}, false
	}
	for _, f := range files {
		for i, line := range f.Lines() {
			for _, re := range res {
				if re.MatchString(line) {
					return hit{file: f.Path, line: i + 1}, true
				}
			}
		}
	}
	return hit{}, false
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// aiCallSites matches code that talks to a model
var aiCallSites = []string{
	`(?i)\bchat\.?completions?\b`,
	`(?i)\bmessages\.create\b`,
	`(?i)\bgenerate_?content\b`,
	`(?i)\bCreateChatCompletion\b`,
	`(?i)\b(llm|model)\.(invoke|predict|generate|complete)\b`,
}
