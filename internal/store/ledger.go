package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skillforge/internal/difficulty"
	"github.com/abhisek/skillforge/internal/reward"
)

// Ledger persists reward events. Redelivered events (same event ID) are
// ignored.
type Ledger struct {
	db  *sql.DB
	seq *sequenceCounter
}

var _ reward.Ledger = (*Ledger)(nil)

// insert appends one ledger row keyed on event_id.
func (l *Ledger) insert(ctx context.Context, table string, at time.Time, columns []string, values ...any) error {
	seqNum, err := l.seq.Next(ctx)
	if err != nil {
		return err
	}
	if at.IsZero() {
		at = time.Now()
	}

	cols := append([]string{"sequence", "created_at"}, columns...)
	vals := append([]any{seqNum, at.UTC()}, values...)
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(table).
		Columns(cols...).
		Values(vals...).
		OnConflict(entsql.ConflictColumns("event_id"), entsql.DoNothing()).
		Query()
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (l *Ledger) ApplyXP(ctx context.Context, a reward.XPAward) error {
	if a.Amount <= 0 {
		return fmt.Errorf("xp amount must be positive, got %d", a.Amount)
	}
	return l.insert(ctx, xpEventsTable.Name, a.At,
		[]string{"event_id", "session_id", "user_label", "reason", "amount"},
		a.EventID, a.SessionID, a.User, a.Reason, a.Amount)
}

func (l *Ledger) RecordQuizAttempt(ctx context.Context, a reward.Attempt) error {
	return l.insert(ctx, quizAttemptsTable.Name, a.At,
		[]string{"event_id", "session_id", "user_label", "topic", "correct"},
		a.EventID, a.SessionID, a.User, a.Topic, a.Correct)
}

func (l *Ledger) RecordAnalytics(ctx context.Context, a reward.Analytics) error {
	return l.insert(ctx, quizAnalyticsTable.Name, a.At,
		[]string{
			"event_id", "session_id", "user_label", "topic", "questions_answered",
			"correct_answers", "time_taken_secs", "accuracy_percent", "difficulty",
		},
		a.EventID, a.SessionID, a.User, a.Topic, a.QuestionsAnswered,
		a.CorrectAnswers, a.TimeTakenSeconds, a.AccuracyPercent, a.Difficulty.String())
}

func (l *Ledger) RecordLeaderboardEntry(ctx context.Context, e reward.LeaderboardEntry) error {
	return l.insert(ctx, leaderboardEntriesTable.Name, e.At,
		[]string{
			"event_id", "session_id", "user_label", "topic", "accuracy_percent",
			"time_taken_secs", "questions_answered", "difficulty", "mode",
		},
		e.EventID, e.SessionID, e.User, e.Topic, e.AccuracyPercent,
		e.TimeTakenSeconds, e.QuestionsAnswered, e.Difficulty.String(), e.Mode)
}

// TotalXP sums awarded experience. An empty user sums over everyone.
func (l *Ledger) TotalXP(ctx context.Context, user string) (int, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("COALESCE(SUM(amount), 0)").
		From(entsql.Table(xpEventsTable.Name))
	if user != "" {
		sel.Where(entsql.EQ("user_label", user))
	}
	query, args := sel.Query()

	var total int
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum xp: %w", err)
	}
	return total, nil
}

// AttemptCounts returns answered and correct question counts.
func (l *Ledger) AttemptCounts(ctx context.Context, user string) (answered, correct int, err error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(entsql.Count("*"), "COALESCE(SUM(correct), 0)").
		From(entsql.Table(quizAttemptsTable.Name))
	if user != "" {
		sel.Where(entsql.EQ("user_label", user))
	}
	query, args := sel.Query()
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&answered, &correct); err != nil {
		return 0, 0, fmt.Errorf("count attempts: %w", err)
	}
	return answered, correct, nil
}

// AnalyticsRecord is a stored session summary.
type AnalyticsRecord struct {
	reward.Analytics
	Sequence int64
}

// QueryAnalytics returns session summaries, newest first.
func (l *Ledger) QueryAnalytics(ctx context.Context, opts QueryOpts) ([]AnalyticsRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(
			"sequence", "created_at", "event_id", "session_id", "user_label", "topic",
			"questions_answered", "correct_answers", "time_taken_secs", "accuracy_percent", "difficulty",
		).
		From(entsql.Table(quizAnalyticsTable.Name)).
		OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer rows.Close()

	var out []AnalyticsRecord
	for rows.Next() {
		var (
			rec   AnalyticsRecord
			level string
		)
		if err := rows.Scan(
			&rec.Sequence, &rec.At, &rec.EventID, &rec.SessionID, &rec.User, &rec.Topic,
			&rec.QuestionsAnswered, &rec.CorrectAnswers, &rec.TimeTakenSeconds, &rec.AccuracyPercent, &level,
		); err != nil {
			return nil, fmt.Errorf("scan analytics: %w", err)
		}
		rec.Difficulty, _ = difficulty.ParseLevel(level)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TopLeaderboard ranks timed completions by accuracy, then speed. An
// empty topic ranks across all topics.
func (l *Ledger) TopLeaderboard(ctx context.Context, topic string, limit int) ([]reward.LeaderboardEntry, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(
			"created_at", "event_id", "session_id", "user_label", "topic", "accuracy_percent",
			"time_taken_secs", "questions_answered", "difficulty", "mode",
		).
		From(entsql.Table(leaderboardEntriesTable.Name)).
		OrderBy(entsql.Desc("accuracy_percent"), "time_taken_secs", "sequence")
	if topic != "" {
		sel.Where(entsql.EQ("topic", topic))
	}
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []reward.LeaderboardEntry
	for rows.Next() {
		var (
			e     reward.LeaderboardEntry
			level string
		)
		if err := rows.Scan(
			&e.At, &e.EventID, &e.SessionID, &e.User, &e.Topic, &e.AccuracyPercent,
			&e.TimeTakenSeconds, &e.QuestionsAnswered, &level, &e.Mode,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		e.Difficulty, _ = difficulty.ParseLevel(level)
		out = append(out, e)
	}
	return out, rows.Err()
}
