package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/skillforge/internal/logger"
)

// NewProvider builds the configured provider wrapped as
// caller → retry → logging → base. A nil repo skips request logging.
func NewProvider(ctx context.Context, cfg Config, repo RequestRecorder, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenAIProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	if repo != nil {
		base = WithLogging(base, cfg.Provider, repo, log)
	}
	return WithRetry(base, cfg.Retry), nil
}
