package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/confidence"
	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/errors"
	"github.com/felixgeelhaar/complyscan/internal/escalation"
	"github.com/felixgeelhaar/complyscan/internal/layer"
	"github.com/felixgeelhaar/complyscan/internal/policy"
	"github.com/felixgeelhaar/complyscan/internal/scoring"
)

type partialDoc struct{}

func (partialDoc) Meta() check.Meta {
	return check.Meta{
		ID:       "model-card",
		Layer:    domain.LayerDocStructure,
		Category: "documentation",
		Severity: domain.SeverityHigh,
	}
}

func (partialDoc) Analyze(check.FileSet) layer.DocStatus {
	return layer.DocStatus{
		Document: "MODEL_CARD.md",
		Status:   confidence.DocPartial,
		Missing:  []string{"limitations"},
		Message:  "model card documentation is missing sections: limitations",
	}
}

// scenarioRegistry has nine certain passes and one uncertain high fail
func scenarioRegistry(t *testing.T) *layer.Registry {
	t.Helper()
	reg := layer.NewRegistry()
	for i := 0; i < 9; i++ {
		id := fmt.Sprintf("present-%d", i)
		require.NoError(t, reg.RegisterUnit(check.NewUnit(check.Meta{
			ID:       id,
			Layer:    domain.LayerFilePresence,
			Category: "transparency",
			Severity: domain.SeverityMedium,
		}, func(check.FileSet) []check.Verdict {
			return []check.Verdict{check.Pass(id, "found")}
		})))
	}
	require.NoError(t, reg.RegisterDoc(partialDoc{}))
	return reg
}

var scenarioFiles = check.NewFileSet([]check.File{
	{Path: "MODEL_CARD.md", Content: "# Model card\n## Intended use\n"},
})

func oracle(text string, calls *atomic.Int32) escalation.Judge {
	return escalation.JudgeFunc(func(ctx context.Context, prompt string) (escalation.Judgment, error) {
		if calls != nil {
			calls.Add(1)
		}
		return escalation.Judgment{Text: text, InputTokens: 800, OutputTokens: 60}, nil
	})
}

func TestScan_EscalatedPassResolvesTheOnlyFail(t *testing.T) {
	var calls atomic.Int32
	e, err := NewEngine(ScanContext{
		Registry: scenarioRegistry(t),
		Judge:    oracle(`{"verdict":"pass","confidence":85,"reasoning":"sections present under other names","evidence":[]}`, &calls),
	})
	require.NoError(t, err)

	res, err := e.Scan(context.Background(), scenarioFiles)
	require.NoError(t, err)

	assert.EqualValues(t, 1, calls.Load(), "exactly the uncertain finding is escalated")
	require.Len(t, res.Escalations, 1)
	assert.Equal(t, "model-card", res.Escalations[0].FindingID)
	assert.Equal(t, 55, res.Escalations[0].OriginalConfidence)
	assert.Equal(t, escalation.PromptDocumentation, res.Escalations[0].PromptType)

	require.Len(t, res.Findings, 10)
	for _, f := range res.Findings {
		assert.True(t, f.IsPass(), f.ID)
	}
	escalated := res.Findings[9]
	assert.Equal(t, domain.SeverityInfo, escalated.Severity)
	assert.Equal(t, 85, *escalated.Confidence)
	assert.True(t, escalated.Escalated)

	assert.Equal(t, scoring.ModeFallback, res.Score.Mode)
	assert.Equal(t, 100, res.Score.TotalScore)
	assert.Equal(t, domain.ZoneGreen, res.Score.Zone)
	assert.Equal(t, 1, res.Score.ConfidenceSummary.Resolved)
}

type broadPattern struct{}

func (broadPattern) Meta() check.Meta {
	return check.Meta{
		ID:       "output-disclosure",
		Layer:    domain.LayerPattern,
		Category: "transparency",
		Severity: domain.SeverityCritical,
	}
}

func (broadPattern) Match(check.FileSet, layer.DepReport) []layer.PatternResult {
	return []layer.PatternResult{{
		Matched:     true,
		Specificity: confidence.SpecificityBroad,
		Message:     "a disclosure-like string was found",
		File:        "MODEL_CARD.md",
	}}
}

func TestScan_OverturnedCriticalPassTriggersTheCap(t *testing.T) {
	reg := layer.NewRegistry()
	for i := 0; i < 9; i++ {
		id := fmt.Sprintf("present-%d", i)
		require.NoError(t, reg.RegisterUnit(check.NewUnit(check.Meta{
			ID:       id,
			Layer:    domain.LayerFilePresence,
			Category: "transparency",
			Severity: domain.SeverityMedium,
		}, func(check.FileSet) []check.Verdict {
			return []check.Verdict{check.Pass(id, "found")}
		})))
	}
	require.NoError(t, reg.RegisterPattern(broadPattern{}))

	e, err := NewEngine(ScanContext{
		Registry: reg,
		Policy:   policy.DefaultPolicy(),
		Judge:    oracle(`{"verdict":"fail","confidence":90,"reasoning":"the string is a code comment","evidence":[]}`, nil),
	})
	require.NoError(t, err)

	res, err := e.Scan(context.Background(), scenarioFiles)
	require.NoError(t, err)

	require.Len(t, res.Escalations, 1)
	assert.Equal(t, 68, res.Escalations[0].OriginalConfidence)

	f := res.Findings[9]
	assert.Equal(t, domain.VerdictFail, f.Type)
	assert.Equal(t, domain.SeverityCritical, f.Severity)
	assert.Equal(t, 1, f.Priority)
	assert.True(t, f.Escalated)

	assert.Equal(t, scoring.ModeWeighted, res.Score.Mode)
	assert.True(t, res.Score.CriticalCapApplied)
	assert.Equal(t, domain.ZoneRed, res.Score.Zone)
	assert.LessOrEqual(t, res.Score.TotalScore, 79)
}

func TestScan_OracleFailureKeepsTheLayerVerdict(t *testing.T) {
	judge := escalation.JudgeFunc(func(ctx context.Context, prompt string) (escalation.Judgment, error) {
		return escalation.Judgment{}, fmt.Errorf("upstream unavailable")
	})
	e, err := NewEngine(ScanContext{Registry: scenarioRegistry(t), Judge: judge})
	require.NoError(t, err)

	res, err := e.Scan(context.Background(), scenarioFiles)
	require.NoError(t, err)

	require.Len(t, res.Escalations, 1)
	assert.Equal(t, escalation.VerdictUncertain, res.Escalations[0].Verdict)
	assert.Contains(t, res.Escalations[0].Reasoning, "failed")

	f := res.Findings[9]
	assert.Equal(t, domain.VerdictFail, f.Type)
	assert.Equal(t, domain.SeverityHigh, f.Severity)
	assert.Equal(t, 55, *f.Confidence)
	assert.False(t, f.Escalated)
	assert.Equal(t, 90, res.Score.TotalScore)
}

func TestScan_WithoutJudgeNothingIsEscalated(t *testing.T) {
	e, err := NewEngine(ScanContext{Registry: scenarioRegistry(t)})
	require.NoError(t, err)
	assert.False(t, e.Escalates())

	res, err := e.Scan(context.Background(), scenarioFiles)
	require.NoError(t, err)
	assert.Empty(t, res.Escalations)
	assert.Equal(t, domain.VerdictFail, res.Findings[9].Type)
}

func TestScan_EscalationDisabledByPolicy(t *testing.T) {
	p := policy.DefaultPolicy()
	p.Escalation.Enabled = false

	var calls atomic.Int32
	e, err := NewEngine(ScanContext{Registry: scenarioRegistry(t), Policy: p, Judge: oracle("{}", &calls)})
	require.NoError(t, err)

	_, err = e.Scan(context.Background(), scenarioFiles)
	require.NoError(t, err)
	assert.Zero(t, calls.Load())
}

func TestScan_InvalidPolicyFallsBack(t *testing.T) {
	p := policy.DefaultPolicy()
	p.Scoring.Weights = map[string]float64{"transparency": -5}
	p.Confidence.Bands.Pass = 10 // below likely_pass

	e, err := NewEngine(ScanContext{Registry: scenarioRegistry(t), Policy: p})
	require.NoError(t, err)

	res, err := e.Scan(context.Background(), scenarioFiles)
	require.NoError(t, err, "an invalid policy never fails the scan")
	assert.Equal(t, scoring.ModeFallback, res.Score.Mode)
	assert.Equal(t, domain.LevelPass, res.Findings[0].ConfidenceLevel, "default bands are used")
}

func TestScan_DisabledRulesAreNotRun(t *testing.T) {
	p := policy.DefaultPolicy()
	p.Rules.Disabled = []string{"model-card"}

	e, err := NewEngine(ScanContext{Registry: scenarioRegistry(t), Policy: p})
	require.NoError(t, err)

	res, err := e.Scan(context.Background(), scenarioFiles)
	require.NoError(t, err)
	assert.Len(t, res.Findings, 9)
	assert.Equal(t, 100, res.Score.TotalScore)
}

func TestScan_Cancelled(t *testing.T) {
	e, err := NewEngine(ScanContext{Registry: scenarioRegistry(t)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Scan(ctx, scenarioFiles)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeScanCancelled, errors.CodeOf(err))
}

var sampleProject = check.NewFileSet([]check.File{
	{Path: "go.mod", Content: "module example.com/bot\n\ngo 1.22\n\nrequire (\n\tgithub.com/anthropics/anthropic-sdk-go v1.2.0\n\tgo.uber.org/zap v1.27.0\n)\n"},
	{Path: "main.go", Content: "package main\n\nimport \"github.com/anthropics/anthropic-sdk-go\"\n\n// show a notice before replies\nfunc reply(c *anthropic.Client) {\n\tc.Messages.New(ctx, params)\n}\n"},
	{Path: "docs/AI_SYSTEM.md", Content: "# AI System\n## Purpose\n## Architecture\n"},
	{Path: "PRIVACY.md", Content: "# Privacy\n"},
})

func TestScan_IsIdempotent(t *testing.T) {
	p := policy.DefaultPolicy()
	judge := oracle(`{"verdict":"fail","confidence":70,"reasoning":"notice is a comment only","evidence":["main.go:5"]}`, nil)

	run := func() *Result {
		e, err := NewEngine(ScanContext{Root: ".", Policy: p, Judge: judge})
		require.NoError(t, err)
		res, err := e.Scan(context.Background(), sampleProject)
		require.NoError(t, err)
		return res
	}

	first, second := run(), run()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("re-run differs (-first +second):\n%s", diff)
	}

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.NotEmpty(t, first.Deps.AISDKs, "the go.mod SDK is reported")
}

func TestScanReport(t *testing.T) {
	e, err := NewEngine(ScanContext{Root: "/repo", Registry: scenarioRegistry(t)})
	require.NoError(t, err)

	rep, err := e.ScanReport(context.Background(), scenarioFiles)
	require.NoError(t, err)

	_, err = uuid.Parse(rep.ScanID)
	assert.NoError(t, err)
	assert.Equal(t, "/repo", rep.Root)
	assert.Equal(t, "complyscan", rep.Tool)
	assert.False(t, rep.StartedAt.IsZero())
	require.NotNil(t, rep.Result)

	data, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"scanId"`))
}
