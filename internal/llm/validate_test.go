package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func questionSchema() *Schema {
	return &Schema{
		Name: "test-question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prompt":  map[string]any{"type": "string", "minLength": 1},
				"answer":  map[string]any{"type": "string"},
				"kind":    map[string]any{"type": "string", "enum": []string{"multipleChoice", "trueFalse"}},
				"choices": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"prompt", "answer"},
		},
	}
}

func TestValidate_Accepts(t *testing.T) {
	raw := json.RawMessage(`{"prompt":"Which P covers distribution?","answer":"Place","kind":"multipleChoice","choices":["Price","Place"]}`)
	if err := Validate(questionSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required", `{"prompt":"q"}`},
		{"wrong type", `{"prompt":"q","answer":7}`},
		{"bad enum", `{"prompt":"q","answer":"a","kind":"essay"}`},
		{"bad item type", `{"prompt":"q","answer":"a","choices":[1,2]}`},
		{"empty prompt", `{"prompt":"","answer":"a"}`},
		{"not json", `{prompt}`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(questionSchema(), json.RawMessage(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got: %T", err)
			}
			if string(inv.Content) != tt.raw {
				t.Fatalf("content = %q, want %q", inv.Content, tt.raw)
			}
		})
	}
}

func TestValidate_NilSchemaStillRequiresJSON(t *testing.T) {
	if err := Validate(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
	if err := Validate(nil, json.RawMessage(`nope`)); err == nil {
		t.Fatal("expected error for non-JSON with nil schema")
	}
}

func TestValidate_CachesCompiledSchema(t *testing.T) {
	s := questionSchema()
	s.Name = "test-question-cache"
	for i := 0; i < 3; i++ {
		if err := Validate(s, json.RawMessage(`{"prompt":"q","answer":"a"}`)); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if _, ok := schemaCache.Load(s.Name); !ok {
		t.Fatal("expected schema to be cached")
	}
}
