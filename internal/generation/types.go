package generation

import (
	"strings"
	"time"

	"github.com/abhisek/skillforge/internal/difficulty"
)

// QuestionKind is the answer style of a quiz question.
type QuestionKind string

const (
	MultipleChoice QuestionKind = "multipleChoice"
	TrueFalse      QuestionKind = "trueFalse"
	ShortAnswer    QuestionKind = "shortAnswer"
	Scenario       QuestionKind = "scenario"
)

// Question is an immutable generated quiz question.
type Question struct {
	ID         string
	Kind       QuestionKind
	Difficulty difficulty.Level
	Prompt     string

	// Choices is set only for MultipleChoice questions. TrueFalse answers
	// are the literal "True" or "False".
	Choices []string

	// CorrectAnswer is compared verbatim (after trimming) to the learner's
	// answer. For choice questions it is the text of one of the choices.
	CorrectAnswer string
	Explanation   string
	Topic         string
	Concept       string
}

// Check reports whether answer matches CorrectAnswer exactly once both
// are trimmed.
func (q *Question) Check(answer string) bool {
	return strings.TrimSpace(answer) == strings.TrimSpace(q.CorrectAnswer)
}

// SessionSummary is the input for end-of-quiz feedback.
type SessionSummary struct {
	Topic             string
	Mode              string
	QuestionsAnswered int
	CorrectAnswers    int
	AccuracyPercent   float64
	Difficulty        difficulty.Level
	TimeTakenSeconds  int

	// MissedConcepts lists concepts of incorrectly answered questions.
	MissedConcepts []string
}

// Author identifies who sent a dialogue message.
type Author string

const (
	Operator    Author = "operator"
	Counterpart Author = "counterpart"
)

// Message is one dialogue turn.
type Message struct {
	ID     string
	Author Author
	Text   string
	SentAt time.Time
}

// SentAtMillis returns the send time in Unix milliseconds.
func (m Message) SentAtMillis() int64 {
	return m.SentAt.UnixMilli()
}

// Transcript is the ordered, append-only list of dialogue turns.
type Transcript []Message

// ReplyContext carries what the counterpart needs to answer the latest
// operator message.
type ReplyContext struct {
	Transcript     Transcript
	PersonaName    string
	PersonaProfile string
	BrevityHint    string
	Product        string
	// Skepticism is the instruction text for the mode's difficulty tier.
	Skepticism string
}

// VerdictContext accompanies a transcript sent for judging.
type VerdictContext struct {
	PersonaName    string
	PersonaProfile string
	Mode           string
	Product        string
	// PositiveHint is set when the counterpart appeared to agree to buy.
	// It biases the judge but never decides the outcome.
	PositiveHint bool
}

// Verdict is the structurally valid judgement of a dialogue. Fields other
// than Won may still need repair before use.
type Verdict struct {
	Won bool
	// Score is nil when the provider sent no usable number.
	Score        *float64
	Feedback     string
	Strengths    []string
	Improvements []string
}
