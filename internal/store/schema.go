package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table layouts, declared the way ent's generated migrate package does so
// the same schema.Migrate engine can create and evolve them.
//
// Every table carries the global sequence and a created_at timestamp.
// Ledger tables key idempotency on event_id.

var (
	llmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmRequestEventsColumns,
		PrimaryKey: []*schema.Column{llmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmRequestEventsColumns[5]}},
			{Name: "llmrequestevent_model", Columns: []*schema.Column{llmRequestEventsColumns[4]}},
		},
	}

	xpEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "event_id", Type: field.TypeString, Unique: true},
		{Name: "session_id", Type: field.TypeString},
		{Name: "user_label", Type: field.TypeString, Default: ""},
		{Name: "reason", Type: field.TypeString},
		{Name: "amount", Type: field.TypeInt},
	}
	xpEventsTable = &schema.Table{
		Name:       "xp_events",
		Columns:    xpEventsColumns,
		PrimaryKey: []*schema.Column{xpEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "xpevent_user_label", Columns: []*schema.Column{xpEventsColumns[5]}},
		},
	}

	quizAttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "event_id", Type: field.TypeString, Unique: true},
		{Name: "session_id", Type: field.TypeString},
		{Name: "user_label", Type: field.TypeString, Default: ""},
		{Name: "topic", Type: field.TypeString},
		{Name: "correct", Type: field.TypeBool},
	}
	quizAttemptsTable = &schema.Table{
		Name:       "quiz_attempts",
		Columns:    quizAttemptsColumns,
		PrimaryKey: []*schema.Column{quizAttemptsColumns[0]},
	}

	quizAnalyticsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "event_id", Type: field.TypeString, Unique: true},
		{Name: "session_id", Type: field.TypeString},
		{Name: "user_label", Type: field.TypeString, Default: ""},
		{Name: "topic", Type: field.TypeString},
		{Name: "questions_answered", Type: field.TypeInt},
		{Name: "correct_answers", Type: field.TypeInt},
		{Name: "time_taken_secs", Type: field.TypeInt},
		{Name: "accuracy_percent", Type: field.TypeFloat64},
		{Name: "difficulty", Type: field.TypeString},
	}
	quizAnalyticsTable = &schema.Table{
		Name:       "quiz_analytics",
		Columns:    quizAnalyticsColumns,
		PrimaryKey: []*schema.Column{quizAnalyticsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "quizanalytics_topic", Columns: []*schema.Column{quizAnalyticsColumns[6]}},
		},
	}

	leaderboardEntriesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "event_id", Type: field.TypeString, Unique: true},
		{Name: "session_id", Type: field.TypeString},
		{Name: "user_label", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString},
		{Name: "accuracy_percent", Type: field.TypeFloat64},
		{Name: "time_taken_secs", Type: field.TypeInt},
		{Name: "questions_answered", Type: field.TypeInt},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "mode", Type: field.TypeString},
	}
	leaderboardEntriesTable = &schema.Table{
		Name:       "leaderboard_entries",
		Columns:    leaderboardEntriesColumns,
		PrimaryKey: []*schema.Column{leaderboardEntriesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "leaderboardentry_topic", Columns: []*schema.Column{leaderboardEntriesColumns[6]}},
		},
	}

	tables = []*schema.Table{
		llmRequestEventsTable,
		xpEventsTable,
		quizAttemptsTable,
		quizAnalyticsTable,
		leaderboardEntriesTable,
	}
)
