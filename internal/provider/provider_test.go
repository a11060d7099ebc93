package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/felixgeelhaar/complyscan/internal/errors"
	"github.com/felixgeelhaar/complyscan/internal/router"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("ANTHROPIC_BASE_URL", "http://localhost:9999")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := ConfigFromEnv("Anthropic", "claude-haiku-3.5")
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.Name != router.ProviderAnthropic || cfg.APIKey != "sk-ant" || cfg.BaseURL != "http://localhost:9999" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := ConfigFromEnv("openai", ""); errors.CodeOf(err) != errors.ErrCodeProviderAuth {
		t.Errorf("missing key should be an auth error, got %v", err)
	}
	if _, err := ConfigFromEnv("gemini", ""); errors.CodeOf(err) != errors.ErrCodeProviderNotFound {
		t.Errorf("unknown provider should be not-found, got %v", err)
	}
}

func TestNewDispatchesByName(t *testing.T) {
	c, err := New(Config{Name: router.ProviderOpenAI, APIKey: "k"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Name() != "openai" || c.Model() != "gpt-4o-mini" {
		t.Errorf("unexpected client %s/%s", c.Name(), c.Model())
	}

	if _, err := New(Config{Name: router.ProviderAnthropic}); errors.CodeOf(err) != errors.ErrCodeProviderAuth {
		t.Errorf("empty key should be an auth error, got %v", err)
	}
}

func TestAnthropicProvider_Generate(t *testing.T) {
	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("unexpected api key header: %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("unexpected version header: %s", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		// catalog ids are translated to provider model names
		if req.Model != "claude-3-5-haiku-20241022" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if req.System != "be terse" {
			t.Errorf("unexpected system prompt: %s", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicResponse{
			ID:         "msg_123",
			Type:       "message",
			Role:       "assistant",
			Content:    []anthropicContent{{Type: "text", Text: `{"verdict":"pass"}`}},
			Model:      "claude-3-5-haiku-20241022",
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 10, OutputTokens: 5},
		})
	}))

	p, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Model: "claude-haiku-3.5"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider() error = %v", err)
	}

	resp, err := p.Generate(context.Background(), &GenerateRequest{Prompt: "judge this", SystemPrompt: "be terse"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != `{"verdict":"pass"}` {
		t.Errorf("unexpected content: %s", resp.Content)
	}
	if resp.InputTokens != 10 || resp.OutputTokens != 5 {
		t.Errorf("unexpected usage: %d/%d", resp.InputTokens, resp.OutputTokens)
	}
	if resp.Provider != "anthropic" || resp.FinishReason != "end_turn" {
		t.Errorf("unexpected response metadata: %+v", resp)
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("system prompt should lead the messages: %+v", req.Messages)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("json response format not requested")
		}

		json.NewEncoder(w).Encode(openAIResponse{
			Model: "gpt-4o-mini-2024-07-18",
			Choices: []openAIChoice{{
				Message:      openAIMessage{Role: "assistant", Content: "ok"},
				FinishReason: "stop",
			}},
			Usage: openAIUsage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10},
		})
	}))

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}

	resp, err := p.Generate(context.Background(), &GenerateRequest{Prompt: "hi", SystemPrompt: "sys"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "ok" || resp.InputTokens != 7 || resp.OutputTokens != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestGenerate_StatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode errors.ErrorCode
		wantText string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, errors.ErrCodeProviderAuth, "authentication failed"},
		{"rate limited", http.StatusTooManyRequests, `{}`, errors.ErrCodeProviderRateLimit, "retry after: 30"},
		{"server error", http.StatusInternalServerError, `{"error":{"type":"api_error","message":"overloaded"}}`, errors.ErrCodeProviderAPI, "overloaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "30")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			clients := []Client{}
			a, _ := NewAnthropicProvider(Config{APIKey: "k", BaseURL: server.URL})
			o, _ := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL})
			clients = append(clients, a, o)

			for _, c := range clients {
				_, err := c.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
				if errors.CodeOf(err) != tt.wantCode {
					t.Errorf("%s: code = %q, want %q (err %v)", c.Name(), errors.CodeOf(err), tt.wantCode, err)
				}
				if err != nil && !strings.Contains(err.Error(), tt.wantText) {
					t.Errorf("%s: error %q should contain %q", c.Name(), err.Error(), tt.wantText)
				}
			}
		})
	}
}

func TestGenerate_ContextCancelled(t *testing.T) {
	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	p, _ := NewAnthropicProvider(Config{APIKey: "k", BaseURL: server.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Generate(ctx, &GenerateRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}

func TestJudgeAdapter(t *testing.T) {
	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Temperature != 0 {
			t.Errorf("judgments should run at temperature 0, got %v", req.Temperature)
		}
		if req.System == "" {
			t.Error("judge should send a system prompt")
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContent{{Type: "text", Text: "verdict"}},
			Model:   "claude-3-5-haiku-20241022",
			Usage:   anthropicUsage{InputTokens: 100, OutputTokens: 20},
		})
	}))

	p, _ := NewAnthropicProvider(Config{APIKey: "k", BaseURL: server.URL, Model: "claude-haiku-3.5"})
	j, err := NewJudge(p).Judge(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Judge() error = %v", err)
	}
	if j.Text != "verdict" || j.Model != "claude-haiku-3.5" || j.InputTokens != 100 || j.OutputTokens != 20 {
		t.Errorf("unexpected judgment: %+v", j)
	}
}
