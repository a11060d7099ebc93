package router

// Provider represents an AI provider (Anthropic, OpenAI, etc.)
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ModelType categorizes models by their capabilities
type ModelType string

const (
	ModelTypeReasoning ModelType = "reasoning" // Careful judgment on long evidence
	ModelTypeFast      ModelType = "fast"      // Low-latency models
	ModelTypeCheap     ModelType = "cheap"     // Budget-friendly models
)

// Model represents an AI model and its pricing
type Model struct {
	ID              string    `json:"id"`
	Provider        Provider  `json:"provider"`
	Name            string    `json:"name"`
	Type            ModelType `json:"type"`
	ContextWindow   int       `json:"context_window"`    // Tokens
	InputPerMToken  float64   `json:"input_per_mtoken"`  // USD per million input tokens
	OutputPerMToken float64   `json:"output_per_mtoken"` // USD per million output tokens
	CapabilityScore float64   `json:"capability_score"`  // 0-100 capability rating
}

// Usage represents one oracle call's consumption
type Usage struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}
