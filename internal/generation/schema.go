package generation

import "github.com/abhisek/skillforge/internal/llm"

// QuestionSchema is the structure requested for quiz questions.
var QuestionSchema = &llm.Schema{
	Name:        "quiz-question",
	Description: "A single quiz question with its answer and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"kind": map[string]any{
				"type":        "string",
				"enum":        []string{string(MultipleChoice), string(TrueFalse), string(ShortAnswer), string(Scenario)},
				"description": "How the learner answers the question",
			},
			"prompt": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The question text shown to the learner",
			},
			"choices": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 options for multipleChoice, otherwise empty",
			},
			"correctAnswer": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The correct answer; for multipleChoice the exact text of one choice, for trueFalse True or False",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the answer is correct, two or three sentences",
			},
			"concept": map[string]any{
				"type":        "string",
				"description": "The key concept being tested",
			},
		},
		"required": []string{"kind", "prompt", "correctAnswer", "explanation"},
	},
}

// VerdictSchema is deliberately permissive: won and score arrive in
// several shapes and are coerced after validation.
var VerdictSchema = &llm.Schema{
	Name:        "negotiation-verdict",
	Description: "Judgement of a sales negotiation transcript",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"won": map[string]any{
				"type":        []string{"boolean", "string", "integer"},
				"description": "Whether the prospect agreed to buy",
			},
			"score": map[string]any{
				"type":        []string{"number", "string"},
				"description": "Overall performance from 0 to 100",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Short narrative feedback for the seller",
			},
			"strengths": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"improvements": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"won"},
	},
}
