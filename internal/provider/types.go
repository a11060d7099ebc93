package provider

import "time"

// GenerateRequest represents a request to generate content
type GenerateRequest struct {
	// Prompt is the user message
	Prompt string

	// SystemPrompt sets the system role
	SystemPrompt string

	// Model overrides the client's default model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls randomness; judgment calls use 0
	Temperature float64
}

// GenerateResponse represents the response from content generation
type GenerateResponse struct {
	// Content is the generated text
	Content string

	// InputTokens is the number of prompt tokens
	InputTokens int

	// OutputTokens is the number of completion tokens
	OutputTokens int

	// Model is the model that served the request
	Model string

	// Latency is the time taken to generate
	Latency time.Duration

	// FinishReason indicates why generation stopped
	FinishReason string

	// Provider is the name of the provider that generated this response
	Provider string
}
