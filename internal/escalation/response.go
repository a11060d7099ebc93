package escalation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/complyscan/internal/errors"
)

// Verdict is the oracle's answer
type Verdict string

const (
	VerdictPass      Verdict = "pass"
	VerdictFail      Verdict = "fail"
	VerdictUncertain Verdict = "uncertain"
)

// Response is the structured reply the oracle must produce
type Response struct {
	Verdict    Verdict  `json:"verdict"`
	Confidence int      `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Evidence   []string `json:"evidence"`
}

type rawResponse struct {
	Verdict    string   `json:"verdict"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Evidence   []string `json:"evidence"`
}

// ParseResponse extracts the JSON verdict from the oracle's text. Prose or
// code fences around a single object are tolerated; anything else is malformed.
func ParseResponse(text string) (Response, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return Response{}, errors.NewOracleMalformedError("no JSON object in response")
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Response{}, errors.NewOracleMalformedError(err.Error())
	}

	v := Verdict(strings.ToLower(strings.TrimSpace(raw.Verdict)))
	switch v {
	case VerdictPass, VerdictFail, VerdictUncertain:
	default:
		return Response{}, errors.NewOracleMalformedError(fmt.Sprintf("unknown verdict %q", raw.Verdict))
	}

	if raw.Confidence == nil {
		return Response{}, errors.NewOracleMalformedError("missing confidence")
	}
	c := *raw.Confidence
	if c < 0 || c > 100 {
		return Response{}, errors.NewOracleMalformedError(fmt.Sprintf("confidence %v out of range 0..100", c))
	}

	return Response{
		Verdict:    v,
		Confidence: int(c + 0.5),
		Reasoning:  strings.TrimSpace(raw.Reasoning),
		Evidence:   raw.Evidence,
	}, nil
}

// complianceConfidence maps the oracle's certainty in its own verdict onto
// the likelihood-of-compliance scale findings use.
func complianceConfidence(r Response, original int) int {
	switch r.Verdict {
	case VerdictPass:
		return r.Confidence
	case VerdictFail:
		return 100 - r.Confidence
	default:
		return original
	}
}
