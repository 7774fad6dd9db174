package dialogue

import "strings"

// Persona is a fixed negotiation counterpart.
type Persona struct {
	ID      string
	Name    string
	Profile string
	Opening string
	// Brevity tells the provider how long the persona's replies should be.
	Brevity string
	// Fallback is said when no reply could be generated.
	Fallback string
}

var personas = []Persona{
	{
		ID:       "skeptic",
		Name:     "Sam the Skeptic",
		Profile:  "A procurement manager who has been burned by overpromising vendors and questions every claim.",
		Opening:  "I've heard a lot of pitches this quarter. What makes yours any different?",
		Brevity:  "Two short sentences at most; blunt and to the point.",
		Fallback: "Hmm. I'm not convinced yet. Can you give me something concrete?",
	},
	{
		ID:       "analyst",
		Name:     "Priya the Analyst",
		Profile:  "A data-driven operations lead who wants numbers, benchmarks and ROI before any commitment.",
		Opening:  "Before we start, I'll need to see the numbers. What kind of return are your customers getting?",
		Brevity:  "Up to three sentences, precise and numeric.",
		Fallback: "I'd need to see data on that before going further. What metrics can you share?",
	},
	{
		ID:       "budget",
		Name:     "Bob on a Budget",
		Profile:  "A small-business owner with a tight budget who is friendly but extremely price sensitive.",
		Opening:  "Hi there! Just so you know, money's tight this year. How much is this going to cost me?",
		Brevity:  "One or two casual sentences.",
		Fallback: "That all sounds nice, but I keep coming back to the price. Can you help me there?",
	},
	{
		ID:       "busy",
		Name:     "Busy Executive Erin",
		Profile:  "A time-starved executive who wants the bottom line immediately and hates small talk.",
		Opening:  "I have five minutes. Give me the headline.",
		Brevity:  "One short sentence, sometimes just a few words.",
		Fallback: "I'm short on time. Get to the point.",
	},
	{
		ID:       "loyalist",
		Name:     "Loyal Larry",
		Profile:  "A long-time customer of a competitor who is comfortable with the current vendor and resistant to change.",
		Opening:  "We've used the same provider for ten years and they've never let us down. Why would I switch?",
		Brevity:  "Two or three sentences, polite but firm.",
		Fallback: "Our current vendor handles that fine. I don't see a reason to change.",
	},
	{
		ID:       "enthusiast",
		Name:     "Eager Emma",
		Profile:  "An enthusiastic early adopter who loves new ideas but needs help getting approval from her team.",
		Opening:  "Ooh, I love trying new things! Tell me everything. What's the coolest part?",
		Brevity:  "Two or three upbeat sentences.",
		Fallback: "That's interesting! But how would I explain it to my team?",
	},
	{
		ID:       "technical",
		Name:     "Technical Tom",
		Profile:  "A senior engineer who cares about integration, security and reliability more than features.",
		Opening:  "Before you pitch anything, how does this integrate with our existing systems?",
		Brevity:  "Up to three sentences with technical detail.",
		Fallback: "That doesn't answer my question about integration and security. Can you be specific?",
	},
}

// Personas returns the persona catalog in a fixed order.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}

// PersonaByID looks up a persona.
func PersonaByID(id string) (Persona, bool) {
	for _, p := range personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// closingPhrases are affirmative phrases that suggest the counterpart has
// agreed to buy. Matching is a plain substring test, so "no deal" also
// matches; a match only triggers evaluation with a positive hint.
var closingPhrases = []string{
	"deal",
	"sold",
	"i'll take it",
	"i will take it",
	"sign me up",
	"where do i sign",
	"you've convinced me",
	"you have convinced me",
	"let's do it",
	"count me in",
}

// IsClosing reports whether text contains an affirmative closing phrase,
// ignoring case.
func IsClosing(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range closingPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
