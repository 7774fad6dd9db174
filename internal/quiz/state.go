package quiz

import (
	"errors"

	"github.com/abhisek/skillforge/internal/difficulty"
	"github.com/abhisek/skillforge/internal/generation"
)

// Mode selects self-paced or timed play.
type Mode string

const (
	Practice Mode = "practice"
	Timed    Mode = "timed"
)

// QuestionSeconds is the per-question allowance in timed mode.
const QuestionSeconds = 30

// DefaultFallbackAfter is the number of consecutive failed question
// generations after which a locally built question is served.
const DefaultFallbackAfter = 2

// Phase is the quiz state-machine phase.
type Phase string

const (
	PhaseSetup              Phase = "setup"
	PhaseAwaitingGeneration Phase = "awaitingGeneration"
	PhaseActive             Phase = "active"
	PhaseFeedback           Phase = "feedback"
	PhaseComplete           Phase = "complete"
)

var transitions = map[Phase][]Phase{
	PhaseSetup:              {PhaseAwaitingGeneration},
	PhaseAwaitingGeneration: {PhaseActive, PhaseSetup, PhaseFeedback},
	PhaseActive:             {PhaseFeedback, PhaseComplete},
	PhaseFeedback:           {PhaseAwaitingGeneration, PhaseComplete},
}

var (
	// ErrNoAnswer is returned by SubmitAnswer when nothing was staged.
	ErrNoAnswer = errors.New("quiz: no answer staged")
	// ErrUnknownTopic is returned by Start for a filter outside the catalog.
	ErrUnknownTopic = errors.New("quiz: unknown topic")
	// ErrSuperseded is returned when the session was reset while the call
	// was in flight; its result was discarded.
	ErrSuperseded = errors.New("quiz: session reset during call")
)

// StartRequest begins a quiz run.
type StartRequest struct {
	TopicFilter string `validate:"required"`
	Mode        Mode   `validate:"required,oneof=practice timed"`
	// User labels ledger events; empty means "anonymous".
	User string `validate:"omitempty,max=64"`
}

// Session is a point-in-time copy of the quiz state.
type Session struct {
	// ID identifies the run and prefixes every ledger event ID.
	ID          string
	User        string
	TopicFilter string
	Mode        Mode
	Phase       Phase

	// Question is the question on screen, nil before the first one arrives.
	Question *generation.Question

	// Answer is the staged or submitted answer; HasAnswer distinguishes an
	// empty answer from none.
	Answer    string
	HasAnswer bool

	// Difficulty is the current ladder level, also the level reached.
	Difficulty difficulty.Level

	QuestionsAnswered int
	CorrectCount      int

	// TimeRemainingSeconds is the countdown of the current question in
	// timed mode, zero otherwise.
	TimeRemainingSeconds   int
	AccumulatedTimeSeconds int

	// LastCorrect and LastXP describe the most recent submission.
	LastCorrect bool
	LastXP      int
	// TimedOut is set when the last submission came from timer expiry.
	TimedOut bool

	// TotalXP sums question XP and, once complete, completion XP.
	TotalXP      int
	CompletionXP int

	// Feedback is the end-of-session coaching text.
	Feedback string

	// LastError is the most recent generation failure the controller
	// recovered from. It is a soft warning for display.
	LastError error
}

// Completion is returned by End.
type Completion struct {
	AccuracyPercent float64
	Difficulty      difficulty.Level
	XP              int
	Feedback        string
	// LocalFeedback is set when Feedback was built without the provider.
	LocalFeedback bool
}
