package escalation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/felixgeelhaar/complyscan/internal/finding"
)

// PromptType frames the question asked of the oracle
type PromptType string

const (
	PromptCodePattern   PromptType = "code_pattern_check"
	PromptDocumentation PromptType = "documentation_check"
	PromptArchitecture  PromptType = "architecture_check"
	PromptDataHandling  PromptType = "data_handling_check"
)

// promptFamilies is checked in order; earlier families win ties
var promptFamilies = []struct {
	typ      PromptType
	keywords []string
}{
	{PromptCodePattern, []string{"disclosure", "logging", "log", "label", "watermark", "marking", "notice", "banner"}},
	{PromptDocumentation, []string{"documentation", "doc", "readme", "policy", "card", "technical"}},
	{PromptArchitecture, []string{"monitoring", "oversight", "architecture", "human", "override", "fallback"}},
	{PromptDataHandling, []string{"data", "retention", "gdpr", "privacy", "pii", "personal", "deletion"}},
}

var promptTasks = map[PromptType]string{
	PromptCodePattern: "Evaluate the implementation patterns in the code below. Decide whether the " +
		"required behaviour is actually implemented on the code paths that serve AI output.",
	PromptDocumentation: "Evaluate the documentation below. Decide whether it covers the required " +
		"content in substance, not just by heading.",
	PromptArchitecture: "Evaluate the system architecture visible in the code below. Decide whether " +
		"the required control exists and can take effect at runtime.",
	PromptDataHandling: "Evaluate how the code below stores, retains and deletes data. Decide whether " +
		"the required data handling is implemented.",
}

// SelectPromptType classifies a finding by keywords in its check id and
// message. Each token counts once for every family it prefixes; the family
// with the most hits wins, and code_pattern_check is the default.
func SelectPromptType(f finding.Finding) PromptType {
	tokens := tokenize(f.CheckID + " " + f.Message)

	best, bestHits := PromptCodePattern, 0
	for _, fam := range promptFamilies {
		hits := 0
		for _, tok := range tokens {
			for _, kw := range fam.keywords {
				if strings.HasPrefix(tok, kw) {
					hits++
					break
				}
			}
		}
		if hits > bestHits {
			best, bestHits = fam.typ, hits
		}
	}
	return best
}

// keywordsFor returns the relevance keywords of a prompt type
func keywordsFor(pt PromptType) []string {
	for _, fam := range promptFamilies {
		if fam.typ == pt {
			return fam.keywords
		}
	}
	return nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// BuildPrompt renders the oracle prompt. The output depends only on its
// arguments.
func BuildPrompt(pt PromptType, f finding.Finding, snippets []Snippet) string {
	var b strings.Builder

	task, ok := promptTasks[pt]
	if !ok {
		task = promptTasks[PromptCodePattern]
	}

	b.WriteString("You are reviewing a software project for EU AI Act compliance.\n")
	fmt.Fprintf(&b, "Prompt type: %s\n", pt)
	fmt.Fprintf(&b, "Task: %s\n\n", task)

	b.WriteString("## Check\n")
	fmt.Fprintf(&b, "Check: %s\n", f.CheckID)
	if f.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", f.Category)
	}
	if f.ObligationID != "" {
		fmt.Fprintf(&b, "Obligation: %s", f.ObligationID)
		if f.ArticleReference != "" {
			fmt.Fprintf(&b, " (%s)", f.ArticleReference)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Heuristic verdict: %s with confidence %d of 100\n", f.Type, f.ConfidenceValue())
	fmt.Fprintf(&b, "Finding: %s\n", f.Message)
	if f.File != "" {
		if f.Line > 0 {
			fmt.Fprintf(&b, "Location: %s:%d\n", f.File, f.Line)
		} else {
			fmt.Fprintf(&b, "Location: %s\n", f.File)
		}
	}

	b.WriteString("\n## Evidence\n")
	if len(snippets) == 0 {
		b.WriteString("No relevant source was found.\n")
	}
	for _, s := range snippets {
		fmt.Fprintf(&b, "--- %s (lines %d-%d) ---\n", s.File, s.StartLine, s.EndLine)
		b.WriteString(s.Content)
		if !strings.HasSuffix(s.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("--- end ---\n")
	}

	b.WriteString("\n## Answer\n")
	b.WriteString("Reply with one JSON object:\n")
	b.WriteString(`{"verdict": "pass" | "fail" | "uncertain", "confidence": <0-100>, "reasoning": "<one paragraph>", "evidence": ["<file:line quote>", ...]}` + "\n")
	b.WriteString("confidence is how certain you are of your verdict. pass means the obligation is met.\n")

	return b.String()
}
