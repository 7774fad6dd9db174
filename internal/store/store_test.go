package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/abhisek/skillforge/internal/difficulty"
	"github.com/abhisek/skillforge/internal/reward"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"journal_mode", "wal"},
	}
	for _, tt := range tests {
		var got string
		if err := s.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table.Name,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table.Name, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Ledger().ApplyXP(ctx, reward.XPAward{EventID: "s:1", SessionID: "s", Amount: 20}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	total, err := s.Ledger().TotalXP(ctx, "")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 20 {
		t.Fatalf("total = %d, want 20", total)
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if seq <= prev {
			t.Fatalf("seq[%d] = %d, not above %d", i, seq, prev)
		}
		prev = seq
	}
}

func TestDSN(t *testing.T) {
	if got := DSN("file:x.db?mode=ro"); got != "file:x.db?mode=ro" {
		t.Fatalf("DSN passthrough = %q", got)
	}
	got := DSN("/tmp/x.db")
	if got[:len("file:/tmp/x.db?")] != "file:/tmp/x.db?" {
		t.Fatalf("DSN = %q", got)
	}
}

func TestDefaultDBPath_Env(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "sf.db")
	t.Setenv("SKILLFORGE_DB", want)
	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestDefaultDBPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SKILLFORGE_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if want := filepath.Join(dir, "skillforge", "skillforge.db"); got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestLedger_IdempotentXP(t *testing.T) {
	s := openTestStore(t)
	l := s.Ledger()
	ctx := context.Background()

	award := reward.XPAward{EventID: "sess:q1", SessionID: "sess", User: "ana", Amount: 25, Reason: reward.ReasonQuestion}
	for i := 0; i < 3; i++ {
		if err := l.ApplyXP(ctx, award); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}
	if err := l.ApplyXP(ctx, reward.XPAward{EventID: "sess:done", SessionID: "sess", User: "ana", Amount: 300}); err != nil {
		t.Fatalf("apply completion: %v", err)
	}
	if err := l.ApplyXP(ctx, reward.XPAward{EventID: "other:q1", SessionID: "other", User: "ben", Amount: 20}); err != nil {
		t.Fatalf("apply other: %v", err)
	}

	total, err := l.TotalXP(ctx, "ana")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 325 {
		t.Fatalf("ana total = %d, want 325", total)
	}
	all, _ := l.TotalXP(ctx, "")
	if all != 345 {
		t.Fatalf("overall total = %d, want 345", all)
	}
}

func TestLedger_RejectsNonPositiveXP(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ledger().ApplyXP(context.Background(), reward.XPAward{EventID: "x", Amount: 0}); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestLedger_AttemptsAndAnalytics(t *testing.T) {
	s := openTestStore(t)
	l := s.Ledger()
	ctx := context.Background()

	for i, correct := range []bool{true, false, true, true, true} {
		err := l.RecordQuizAttempt(ctx, reward.Attempt{
			EventID:   reward.EventID("sess", "attempt-"+string(rune('a'+i))),
			SessionID: "sess",
			Topic:     "marketing-mix",
			Correct:   correct,
		})
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	answered, correct, err := l.AttemptCounts(ctx, "")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if answered != 5 || correct != 4 {
		t.Fatalf("counts = %d/%d, want 4/5", correct, answered)
	}

	a := reward.Analytics{
		EventID:           "sess:analytics",
		SessionID:         "sess",
		Topic:             "marketing-mix",
		QuestionsAnswered: 5,
		CorrectAnswers:    4,
		TimeTakenSeconds:  180,
		AccuracyPercent:   80,
		Difficulty:        difficulty.Medium,
	}
	if err := l.RecordAnalytics(ctx, a); err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if err := l.RecordAnalytics(ctx, a); err != nil {
		t.Fatalf("analytics repeat: %v", err)
	}

	recs, err := l.QueryAnalytics(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query analytics: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 analytics row, got %d", len(recs))
	}
	got := recs[0]
	if got.Topic != "marketing-mix" || got.Difficulty != difficulty.Medium || got.AccuracyPercent != 80 || got.TimeTakenSeconds != 180 {
		t.Fatalf("unexpected analytics row: %+v", got)
	}
}

func TestLedger_LeaderboardRanking(t *testing.T) {
	s := openTestStore(t)
	l := s.Ledger()
	ctx := context.Background()

	entries := []reward.LeaderboardEntry{
		{EventID: "a:lb", User: "ana", Topic: "pricing-strategy", AccuracyPercent: 80, TimeTakenSeconds: 200, Difficulty: difficulty.Medium, Mode: "timed"},
		{EventID: "b:lb", User: "ben", Topic: "pricing-strategy", AccuracyPercent: 100, TimeTakenSeconds: 250, Difficulty: difficulty.Hard, Mode: "timed"},
		{EventID: "c:lb", User: "cy", Topic: "pricing-strategy", AccuracyPercent: 80, TimeTakenSeconds: 150, Difficulty: difficulty.Medium, Mode: "timed"},
		{EventID: "d:lb", User: "dee", Topic: "marketing-mix", AccuracyPercent: 100, TimeTakenSeconds: 90, Difficulty: difficulty.Expert, Mode: "timed"},
	}
	for _, e := range entries {
		if err := l.RecordLeaderboardEntry(ctx, e); err != nil {
			t.Fatalf("record %s: %v", e.EventID, err)
		}
	}

	top, err := l.TopLeaderboard(ctx, "pricing-strategy", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	var users []string
	for _, e := range top {
		users = append(users, e.User)
	}
	want := []string{"ben", "cy", "ana"}
	if len(users) != len(want) {
		t.Fatalf("users = %v, want %v", users, want)
	}
	for i := range want {
		if users[i] != want[i] {
			t.Fatalf("users = %v, want %v", users, want)
		}
	}
	if top[0].Difficulty != difficulty.Hard {
		t.Fatalf("difficulty = %v, want hard", top[0].Difficulty)
	}
}

func TestEventRepo_AppendQueryAndUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "mock", Model: "mock", Purpose: "quiz-question", InputTokens: 100, OutputTokens: 40, LatencyMs: 10, Success: true, RequestBody: "req", ResponseBody: "{}"},
		{Provider: "mock", Model: "mock", Purpose: "quiz-question", InputTokens: 50, OutputTokens: 10, LatencyMs: 30, Success: false, ErrorMessage: "timeout"},
		{Provider: "mock", Model: "other", Purpose: "verdict", InputTokens: 300, OutputTokens: 90, LatencyMs: 20, Success: true},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || all[0].Purpose != "verdict" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	filtered, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "quiz-question", Limit: 1})
	if err != nil {
		t.Fatalf("filtered query: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ErrorMessage != "timeout" {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}

	got, err := repo.GetLLMEvent(ctx, all[2].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.RequestBody != "req" || !got.Success {
		t.Fatalf("unexpected event: %+v", got)
	}
	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v, %v", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("expected 2 purposes, got %+v", byPurpose)
	}
	q := byPurpose[0]
	if q.Purpose != "quiz-question" || q.Calls != 2 || q.InputTokens != 150 || q.OutputTokens != 50 || q.AvgLatencyMs != 20 {
		t.Fatalf("unexpected quiz-question usage: %+v", q)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "mock" || byModel[1].Model != "other" {
		t.Fatalf("unexpected model usage: %+v", byModel)
	}
}
