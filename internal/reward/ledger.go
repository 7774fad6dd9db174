package reward

import (
	"context"
	"time"

	"github.com/abhisek/skillforge/internal/difficulty"
)

// Ledger receives reward events. The core only ever writes to it.
//
// Every event carries an EventID unique per session and event, so sinks
// can drop redelivered events.
type Ledger interface {
	ApplyXP(ctx context.Context, award XPAward) error
	RecordQuizAttempt(ctx context.Context, attempt Attempt) error
	RecordAnalytics(ctx context.Context, a Analytics) error
	RecordLeaderboardEntry(ctx context.Context, e LeaderboardEntry) error
}

// Reason labels attached to XP awards.
const (
	ReasonQuestion   = "quiz-question"
	ReasonCompletion = "quiz-completion"
	ReasonDialogue   = "negotiation"
)

// EventID builds the idempotency key for an event of a session.
func EventID(sessionID, label string) string {
	return sessionID + ":" + label
}

// XPAward grants Amount (> 0) experience for Reason.
type XPAward struct {
	EventID   string
	SessionID string
	User      string
	Amount    int
	Reason    string
	At        time.Time
}

// Attempt records one answered quiz question.
type Attempt struct {
	EventID   string
	SessionID string
	User      string
	Topic     string
	Correct   bool
	At        time.Time
}

// Analytics summarizes a finished quiz session for one topic.
type Analytics struct {
	EventID           string
	SessionID         string
	User              string
	Topic             string
	QuestionsAnswered int
	CorrectAnswers    int
	TimeTakenSeconds  int
	AccuracyPercent   float64
	Difficulty        difficulty.Level
	At                time.Time
}

// LeaderboardEntry is written for timed quiz completions only.
type LeaderboardEntry struct {
	EventID           string
	SessionID         string
	User              string
	Topic             string
	AccuracyPercent   float64
	TimeTakenSeconds  int
	QuestionsAnswered int
	Difficulty        difficulty.Level
	Mode              string
	At                time.Time
}

// Nop discards every event.
type Nop struct{}

func (Nop) ApplyXP(context.Context, XPAward) error { return nil }
func (Nop) RecordQuizAttempt(context.Context, Attempt) error { return nil }
func (Nop) RecordAnalytics(context.Context, Analytics) error { return nil }
func (Nop) RecordLeaderboardEntry(context.Context, LeaderboardEntry) error { return nil }
