package escalation

import "context"

// Judgment is the raw reply of one oracle call
type Judgment struct {
	Text         string `json:"text"`
	Model        string `json:"model,omitempty"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
}

// Judge is the judgment oracle. Implementations must honour ctx cancellation.
type Judge interface {
	Judge(ctx context.Context, prompt string) (Judgment, error)
}

// JudgeFunc adapts a function to Judge
type JudgeFunc func(ctx context.Context, prompt string) (Judgment, error)

// Judge calls f
func (f JudgeFunc) Judge(ctx context.Context, prompt string) (Judgment, error) {
	return f(ctx, prompt)
}

// PricingFunc returns the USD cost of a call. It must be pure.
type PricingFunc func(modelID string, inputTokens, outputTokens int) float64
