package quiz

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/difficulty"
	"github.com/abhisek/skillforge/internal/generation"
)

// fallbackQuestion builds a true/false question from catalog text alone.
// The concept rotates with n so repeated fallbacks differ.
func fallbackQuestion(t catalog.Topic, level difficulty.Level, n int) *generation.Question {
	concept := t.Title
	if len(t.KeyConcepts) > 0 {
		concept = t.KeyConcepts[n%len(t.KeyConcepts)]
	}
	return &generation.Question{
		ID:            uuid.NewString(),
		Kind:          generation.TrueFalse,
		Difficulty:    level,
		Prompt:        fmt.Sprintf("True or false: %q is one of the key concepts of %s.", concept, t.Title),
		CorrectAnswer: "True",
		Explanation:   fmt.Sprintf("%s is listed among the key concepts of %s. %s", concept, t.Title, t.Overview),
		Topic:         t.ID,
		Concept:       concept,
	}
}

// localFeedback summarises a run without the provider.
func localFeedback(s generation.SessionSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You answered %d of %d questions correctly (%.0f%%) and reached %s difficulty.",
		s.CorrectAnswers, s.QuestionsAnswered, s.AccuracyPercent, s.Difficulty)
	switch {
	case s.QuestionsAnswered == 0:
		b.WriteString(" Answer a few questions next time to get a meaningful score.")
	case s.AccuracyPercent >= difficulty.PromoteAt:
		b.WriteString(" Strong work; try a harder topic or timed mode next.")
	case s.AccuracyPercent < difficulty.DemoteBelow:
		b.WriteString(" Review the topic overview before your next attempt.")
	default:
		b.WriteString(" Solid progress; a little more practice will push you up a level.")
	}
	if len(s.MissedConcepts) > 0 {
		fmt.Fprintf(&b, " Concepts to revisit: %s.", strings.Join(s.MissedConcepts, ", "))
	}
	return b.String()
}
