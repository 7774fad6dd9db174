package llm

import (
	"context"
	"encoding/json"
)

// Provider is the boundary to an external text-generation service.
// Implementations return the raw model output; callers are responsible
// for cleaning and validating it.
type Provider interface {
	// Generate sends a prompt and returns the model's raw output.
	// When req.Schema is set the provider asks for JSON via its native
	// structured-output mechanism, but the content is still untrusted.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation history, oldest first.
	Messages []Message

	// Schema, when set, requests JSON output of this shape.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema definition.
type Schema struct {
	// Name identifies the schema, kebab-case, e.g. "quiz-question".
	Name string

	Description string

	// Definition is the JSON Schema document as a map.
	Definition map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is the raw text the model produced. It may carry code fences
	// or prose around the JSON object.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
