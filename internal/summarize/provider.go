package summarize

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Gemini exposes an OpenAI-compatible chat completions endpoint.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

const (
	defaultMaxTokens = 4096
	defaultTimeout   = 2 * time.Minute
)

type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch NormalizeProvider(provider) {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-haiku-4-5"
	default:
		return "gemini-2.0-flash"
	}
}

// NormalizeProvider lowercases the provider name; empty means gemini.
func NormalizeProvider(raw string) string {
	p := strings.ToLower(strings.TrimSpace(raw))
	if p == "" {
		return ProviderGemini
	}
	return p
}

// NewProvider builds the provider client named by cfg.Provider.
func NewProvider(cfg Config) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("summarizer api key is empty")
	}
	name := NormalizeProvider(cfg.Provider)
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel(name)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	switch name {
	case ProviderGemini:
		if strings.TrimSpace(cfg.BaseURL) == "" {
			cfg.BaseURL = geminiBaseURL
		}
		return newOpenAIProvider(name, cfg), nil
	case ProviderOpenAI:
		return newOpenAIProvider(name, cfg), nil
	case ProviderAnthropic:
		return newAnthropicProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q (use gemini, openai or anthropic)", cfg.Provider)
	}
}
