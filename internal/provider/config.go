package provider

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/complyscan/internal/errors"
	"github.com/felixgeelhaar/complyscan/internal/router"
)

// DefaultTimeout bounds a single HTTP round trip. Escalation applies its own
// per-call deadline through the context on top of this.
const DefaultTimeout = 120 * time.Second

// DefaultMaxTokens is the completion budget of one judgment
const DefaultMaxTokens = 1024

// Config holds everything needed to construct a Client
type Config struct {
	Name      router.Provider
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// ConfigFromEnv builds a Config for the named provider. The API key comes from
// <NAME>_API_KEY and an optional <NAME>_BASE_URL overrides the endpoint.
func ConfigFromEnv(name, model string) (Config, error) {
	p := router.Provider(strings.ToLower(name))
	switch p {
	case router.ProviderAnthropic, router.ProviderOpenAI:
	default:
		return Config{}, errors.New(errors.ErrCodeProviderNotFound, fmt.Sprintf("unsupported provider: %s", name)).
			WithSuggestion("Set escalation.provider to anthropic or openai")
	}

	prefix := strings.ToUpper(string(p))
	key := os.Getenv(prefix + "_API_KEY")
	if key == "" {
		return Config{}, errors.NewProviderAuthError(string(p))
	}

	return Config{
		Name:      p,
		APIKey:    key,
		BaseURL:   os.Getenv(prefix + "_BASE_URL"),
		Model:     model,
		MaxTokens: DefaultMaxTokens,
		Timeout:   DefaultTimeout,
	}, nil
}

// New constructs the Client for cfg.Name
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewProviderAuthError(string(cfg.Name))
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch cfg.Name {
	case router.ProviderAnthropic:
		return NewAnthropicProvider(cfg)
	case router.ProviderOpenAI:
		return NewOpenAIProvider(cfg)
	default:
		return nil, errors.New(errors.ErrCodeProviderNotFound, fmt.Sprintf("unsupported provider: %s", cfg.Name))
	}
}

// apiModel maps a catalog id to the provider-side model name. Names not in
// the catalog are sent as given.
func apiModel(id string) string {
	if m := router.GetModelByID(id); m != nil {
		return m.Name
	}
	return id
}
