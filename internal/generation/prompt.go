package generation

import (
	"fmt"
	"strings"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/difficulty"
)

const questionSystemPrompt = `You write quiz questions for people learning sales and marketing.

Rules:
- Write one question about the given topic at the given difficulty.
- easy tests recall of a definition, medium tests application, hard tests analysis of a situation, expert tests trade-offs between competing strategies.
- kind is one of multipleChoice, trueFalse, shortAnswer, scenario.
- multipleChoice has exactly 4 choices and correctAnswer is the exact text of one of them.
- trueFalse has correctAnswer True or False and no choices.
- shortAnswer and scenario answers are a single word or short phrase the learner can type exactly.
- Do not repeat any question from the "already asked" list.
- Respond with the JSON object only.`

const feedbackSystemPrompt = `You are an encouraging sales coach. Given a learner's quiz results, write three or four sentences of feedback: what went well, what to review next, and one concrete tip. Plain text, no lists, no markdown.`

const replySystemPrompt = `You are role-playing a prospective customer in a sales conversation. Stay in character at all times and never mention that you are an AI or that this is a simulation.

You are: %s
Profile: %s
Style: %s

The seller is pitching: %s

%s

Reply with only your next line of dialogue, in plain text.`

const verdictSystemPrompt = `You judge sales role-play conversations. Decide whether the seller persuaded the prospect to buy, score the seller from 0 to 100, and give short feedback with up to five strengths and up to five improvements.

Respond with a JSON object: {"won": true|false, "score": number, "feedback": string, "strengths": [string], "improvements": [string]}.`

// Skepticism instructions per dialogue mode, from most to least lenient.
// The stated odds are guidance for the model only.
var skepticismTiers = map[string]string{
	"short":    "Be open-minded. If the seller addresses your main concern convincingly, you may agree to buy; roughly 20% of conversations should end in a sale.",
	"standard": "Be moderately skeptical. Raise at least two objections before considering a purchase; roughly 15% of conversations should end in a sale.",
	"extended": "Be highly skeptical and demanding. Challenge every claim, ask for proof, and only agree to buy after an exceptional pitch; no more than 5 to 10% of conversations should end in a sale.",
}

// Skepticism returns the counterpart instruction for a dialogue mode.
// Unknown modes get the strictest tier.
func Skepticism(mode string) string {
	if s, ok := skepticismTiers[mode]; ok {
		return s
	}
	return skepticismTiers["extended"]
}

func buildQuestionMessage(t catalog.Topic, level difficulty.Level, prior []string, maxPrior int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", t.Title)
	fmt.Fprintf(&b, "Overview: %s\n", strings.TrimSpace(t.Overview))
	fmt.Fprintf(&b, "Key concepts: %s\n", strings.Join(t.KeyConcepts, ", "))
	fmt.Fprintf(&b, "Difficulty: %s\n", level)

	b.WriteString("\nAlready asked in this session:\n")
	if maxPrior > 0 && len(prior) > maxPrior {
		prior = prior[len(prior)-maxPrior:]
	}
	if len(prior) == 0 {
		b.WriteString("None")
	}
	for i, p := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildFeedbackMessage(s SessionSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", s.Topic)
	fmt.Fprintf(&b, "Mode: %s\n", s.Mode)
	fmt.Fprintf(&b, "Answered: %d, correct: %d (%.0f%%)\n", s.QuestionsAnswered, s.CorrectAnswers, s.AccuracyPercent)
	fmt.Fprintf(&b, "Difficulty reached: %s\n", s.Difficulty)
	fmt.Fprintf(&b, "Time taken: %ds\n", s.TimeTakenSeconds)
	if len(s.MissedConcepts) > 0 {
		fmt.Fprintf(&b, "Missed concepts: %s\n", strings.Join(s.MissedConcepts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildReplySystem(rc ReplyContext) string {
	return fmt.Sprintf(replySystemPrompt, rc.PersonaName, rc.PersonaProfile, rc.BrevityHint, rc.Product, rc.Skepticism)
}

// renderTranscript flattens the dialogue into one block so every provider
// sees the same conversation regardless of its role rules.
func renderTranscript(tr Transcript, seller, buyer string) string {
	var b strings.Builder
	for _, m := range tr {
		who := seller
		if m.Author == Counterpart {
			who = buyer
		}
		fmt.Fprintf(&b, "%s: %s\n", who, m.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildReplyMessage(rc ReplyContext) string {
	return "Conversation so far:\n" + renderTranscript(rc.Transcript, "Seller", "You") +
		"\n\nWrite your next line."
}

func buildVerdictMessage(tr Transcript, vc VerdictContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prospect: %s (%s)\n", vc.PersonaName, vc.PersonaProfile)
	fmt.Fprintf(&b, "Product: %s\n", vc.Product)
	fmt.Fprintf(&b, "Mode: %s\n", vc.Mode)
	if vc.PositiveHint {
		b.WriteString("Note: the prospect's last message appears to agree to a purchase. Confirm this against the whole conversation.\n")
	}
	b.WriteString("\nTranscript:\n")
	b.WriteString(renderTranscript(tr, "Seller", "Prospect"))
	return b.String()
}
