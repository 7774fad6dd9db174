package llm

import "testing"

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SKILLFORGE_LLM_PROVIDER", "GEMINI_API_KEY", "OPENAI_API_KEY",
		"ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "SKILLFORGE_OPENAI_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_ExplicitProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SKILLFORGE_LLM_PROVIDER", "openai")
	t.Setenv("SKILLFORGE_OPENAI_API_KEY", "sk-test")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" {
		t.Fatalf("provider = %q, want openai", cfg.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestConfigFromEnv_Discovers(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg := ConfigFromEnv()
	if cfg.Provider != "anthropic" || cfg.Anthropic.APIKey != "sk-ant" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestValidate_MissingKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openrouter"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing openrouter key")
	}
	cfg.Provider = "nope"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	cfg.Provider = "mock"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("mock should not need a key: %v", err)
	}
}
