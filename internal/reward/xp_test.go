package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/skillforge/internal/difficulty"
)

func TestQuestionXP(t *testing.T) {
	tests := []struct {
		name      string
		level     difficulty.Level
		timed     bool
		remaining int
		want      int
	}{
		{"practice easy", difficulty.Easy, false, 30, 20},
		{"practice ignores clock", difficulty.Medium, false, 29, 25},
		{"timed fast hard", difficulty.Hard, true, 21, 35},
		{"timed at window edge", difficulty.Hard, true, 20, 30},
		{"timed expert slow", difficulty.Expert, true, 3, 40},
		{"timed expert fast", difficulty.Expert, true, 25, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuestionXP(tt.level, tt.timed, tt.remaining))
		})
	}
}

func TestCompletionXP(t *testing.T) {
	tests := []struct {
		name    string
		acc     float64
		reached difficulty.Level
		timed   bool
		seconds int
		want    int
	}{
		{"timed medium 80 percent", 80, difficulty.Medium, true, 180, 300},
		{"timed at speed limit", 80, difficulty.Medium, true, 300, 275},
		{"practice never gets speed bonus", 80, difficulty.Medium, false, 10, 275},
		{"decile floors", 79.9, difficulty.Easy, false, 0, 225},
		{"perfect expert", 100, difficulty.Expert, true, 50, 50 + 250 + 100 + 25},
		{"zero accuracy", 0, difficulty.Easy, false, 0, 50},
		{"clamped above", 180, difficulty.Easy, false, 0, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompletionXP(tt.acc, tt.reached, tt.timed, tt.seconds))
		})
	}
}

func TestCompletionXP_Pure(t *testing.T) {
	a := CompletionXP(60, difficulty.Hard, true, 240)
	b := CompletionXP(60, difficulty.Hard, true, 240)
	assert.Equal(t, a, b)
}

func TestDialogueReward(t *testing.T) {
	assert.Equal(t, 100, DialogueReward(true, "short"))
	assert.Equal(t, 200, DialogueReward(true, "standard"))
	assert.Equal(t, 500, DialogueReward(true, "extended"))
	for _, mode := range []string{"short", "standard", "extended", "bogus"} {
		assert.Equal(t, 10, DialogueReward(false, mode), mode)
	}
	assert.Equal(t, 10, DialogueReward(true, "bogus"))
}
