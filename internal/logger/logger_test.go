package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]any{"api_key", "sk-123", "model", "gpt-4o-mini", "Auth_Token", "abc"})
	assert.Equal(t, []any{"api_key", "[REDACTED]", "model", "gpt-4o-mini", "Auth_Token", "[REDACTED]"}, got)
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	got := sanitizeKVs([]any{"k", "v", "dangling"})
	assert.Equal(t, []any{"k", "v", "dangling"}, got)
}

func TestWarn_WritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("session_id", "s1").Warn("generation failed", "kind", "timeout")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "s1", ctx["session_id"])
		assert.Equal(t, "timeout", ctx["kind"])
	}
}
