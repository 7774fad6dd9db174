package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/skillforge/internal/store"
)

type fakeRecorder struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (f *fakeRecorder) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, data)
	return f.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	rec := &fakeRecorder{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"ok":true}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 3, TotalTokens: 15},
	})
	p := WithLogging(mock, "mock", rec, nil)

	ctx := WithPurpose(context.Background(), "quiz-question")
	req := Request{
		System:   "You write quiz questions.",
		Messages: []Message{{Role: RoleUser, Content: "topic: pricing"}},
		Schema:   questionSchema(),
	}
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.events))
	}
	e := rec.events[0]
	if e.Purpose != "quiz-question" || !e.Success || e.InputTokens != 12 || e.OutputTokens != 3 {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Provider != "mock" || e.Model != "mock" {
		t.Fatalf("unexpected provider/model: %q/%q", e.Provider, e.Model)
	}
	if e.ResponseBody != `{"ok":true}` {
		t.Fatalf("unexpected response body: %q", e.ResponseBody)
	}
	for _, want := range []string{"[system]", "[user]", "topic: pricing", "[schema: test-question]"} {
		if !strings.Contains(e.RequestBody, want) {
			t.Fatalf("request body missing %q:\n%s", want, e.RequestBody)
		}
	}
}

func TestLogging_RecordsFailureAndSurvivesStoreError(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	p := WithLogging(mock, "mock", rec, nil)

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected provider error to pass through, got: %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Success || rec.events[0].ErrorMessage == "" {
		t.Fatalf("unexpected events: %+v", rec.events)
	}
	if rec.events[0].Purpose != "unknown" {
		t.Fatalf("purpose = %q, want unknown", rec.events[0].Purpose)
	}
}
