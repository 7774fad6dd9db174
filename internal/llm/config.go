package llm

import (
	"fmt"
	"os"
	"time"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Config holds provider selection and credentials.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter", "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenAIConfig
	Retry      RetryConfig
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig configures OpenAI and OpenAI-compatible endpoints.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "anthropic",
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenAIConfig{
			Model:   "google/gemini-2.0-flash-001",
			BaseURL: defaultOpenRouterBaseURL,
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// ConfigFromEnv builds a Config from SKILLFORGE_* variables. When no
// provider is named explicitly it falls back to DiscoverConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	p := os.Getenv("SKILLFORGE_LLM_PROVIDER")
	if p == "" {
		if discovered, ok := DiscoverConfig(); ok {
			cfg = discovered
		}
	} else {
		cfg.Provider = p
	}

	setIf(&cfg.Anthropic.APIKey, "SKILLFORGE_ANTHROPIC_API_KEY")
	setIf(&cfg.Anthropic.Model, "SKILLFORGE_ANTHROPIC_MODEL")
	setIf(&cfg.OpenAI.APIKey, "SKILLFORGE_OPENAI_API_KEY")
	setIf(&cfg.OpenAI.Model, "SKILLFORGE_OPENAI_MODEL")
	setIf(&cfg.OpenAI.BaseURL, "SKILLFORGE_OPENAI_BASE_URL")
	setIf(&cfg.Gemini.APIKey, "SKILLFORGE_GEMINI_API_KEY")
	setIf(&cfg.Gemini.Model, "SKILLFORGE_GEMINI_MODEL")
	setIf(&cfg.OpenRouter.APIKey, "SKILLFORGE_OPENROUTER_API_KEY")
	setIf(&cfg.OpenRouter.Model, "SKILLFORGE_OPENROUTER_MODEL")

	return cfg
}

// DiscoverConfig probes the vendors' standard API key variables in
// priority order (Gemini, OpenAI, Anthropic, OpenRouter).
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}
	return Config{}, false
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case "anthropic":
		key, env = c.Anthropic.APIKey, "SKILLFORGE_ANTHROPIC_API_KEY"
	case "openai":
		key, env = c.OpenAI.APIKey, "SKILLFORGE_OPENAI_API_KEY"
	case "gemini":
		key, env = c.Gemini.APIKey, "SKILLFORGE_GEMINI_API_KEY"
	case "openrouter":
		key, env = c.OpenRouter.APIKey, "SKILLFORGE_OPENROUTER_API_KEY"
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown generation provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}

func setIf(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
