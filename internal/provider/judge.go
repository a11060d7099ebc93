package provider

import (
	"context"

	"github.com/felixgeelhaar/complyscan/internal/escalation"
)

const judgeSystemPrompt = "You are an EU AI Act compliance auditor reviewing source code. " +
	"Reply with exactly one JSON object and no surrounding prose."

// Judge adapts a Client to the escalation oracle
type Judge struct {
	client    Client
	maxTokens int
}

// NewJudge wraps client for use as an escalation.Judge
func NewJudge(client Client) *Judge {
	return &Judge{client: client, maxTokens: DefaultMaxTokens}
}

// Judge sends one prompt at temperature 0. Token counts are taken from the
// provider's usage report; the model is reported by catalog id so pricing
// and metrics labels stay stable.
func (j *Judge) Judge(ctx context.Context, prompt string) (escalation.Judgment, error) {
	resp, err := j.client.Generate(ctx, &GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: judgeSystemPrompt,
		MaxTokens:    j.maxTokens,
		Temperature:  0,
	})
	if err != nil {
		return escalation.Judgment{}, err
	}

	return escalation.Judgment{
		Text:         resp.Content,
		Model:        j.client.Model(),
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}
