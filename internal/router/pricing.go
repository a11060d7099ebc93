package router

import (
	"fmt"

	"github.com/felixgeelhaar/complyscan/internal/errors"
)

// CharsPerToken is the conservative characters-per-token ratio used for estimates
const CharsPerToken = 4

// EstimateTokens estimates the number of tokens in a text string.
// This is an approximation; actual tokenization varies by model.
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// Cost returns the USD cost of a call. Unknown models cost nothing, which
// keeps local or self-hosted judges usable without a catalog entry.
func Cost(modelID string, inputTokens, outputTokens int) float64 {
	m := GetModelByID(modelID)
	if m == nil {
		return 0
	}
	return (float64(inputTokens)*m.InputPerMToken + float64(outputTokens)*m.OutputPerMToken) / 1_000_000
}

// SelectModel picks the one model used for every judgment call of a scan.
// An explicitly preferred model wins; otherwise the provider's cheapest.
func SelectModel(provider Provider, preferred string) (*Model, error) {
	if preferred != "" {
		m := GetModelByID(preferred)
		if m == nil {
			return nil, errors.New(errors.ErrCodeProviderConfig, fmt.Sprintf("unknown model: %s", preferred)).
				WithSuggestion("Run 'complyscan policy show' to see the configured model")
		}
		if m.Provider != provider {
			return nil, errors.New(errors.ErrCodeProviderConfig,
				fmt.Sprintf("model %s belongs to %s, not %s", m.ID, m.Provider, provider))
		}
		return m, nil
	}

	m := GetCheapestModel(provider)
	if m == nil {
		return nil, errors.New(errors.ErrCodeProviderNotFound, fmt.Sprintf("no models for provider: %s", provider))
	}
	return m, nil
}
