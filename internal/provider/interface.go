package provider

import "context"

// Client is the interface every AI provider implements
type Client interface {
	// Generate sends one prompt and waits for the complete response
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider name, e.g. "anthropic"
	Name() string

	// Model returns the catalog id of the default model
	Model() string
}
