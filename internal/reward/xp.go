// Package reward holds the experience arithmetic and the write-only ledger
// that reward events are delivered to. All amounts are computed locally;
// nothing here trusts numbers produced by the generation provider.
package reward

import (
	"math"

	"github.com/abhisek/skillforge/internal/difficulty"
)

const (
	QuestionBaseXP       = 20
	QuestionSpeedBonusXP = 5
	// A timed answer earns the speed bonus while strictly more than this
	// many seconds remain on the question clock.
	QuestionSpeedWindow = 20

	CompletionBaseXP       = 50
	CompletionPerDecileXP  = 25
	CompletionSpeedBonusXP = 25
	// A timed session earns the completion speed bonus when its
	// accumulated answering time stays strictly below this.
	CompletionSpeedLimit = 300

	// DialogueLossReward is paid for any dialogue that is not won.
	DialogueLossReward = 10
)

var questionBonus = map[difficulty.Level]int{
	difficulty.Easy:   0,
	difficulty.Medium: 5,
	difficulty.Hard:   10,
	difficulty.Expert: 20,
}

var completionBonus = map[difficulty.Level]int{
	difficulty.Easy:   0,
	difficulty.Medium: 25,
	difficulty.Hard:   50,
	difficulty.Expert: 100,
}

var dialogueWinReward = map[string]int{
	"short":    100,
	"standard": 200,
	"extended": 500,
}

// QuestionXP is the experience for one correctly answered question.
// Callers pay it for correct answers only; a miss earns nothing.
func QuestionXP(level difficulty.Level, timed bool, secondsRemaining int) int {
	xp := QuestionBaseXP + questionBonus[level]
	if timed && secondsRemaining > QuestionSpeedWindow {
		xp += QuestionSpeedBonusXP
	}
	return xp
}

// CompletionXP is the experience for finishing a quiz session. It depends
// only on its arguments; reached is the difficulty at the end of the
// session, not the difficulty of any particular question.
func CompletionXP(accuracyPercent float64, reached difficulty.Level, timed bool, accumulatedSeconds int) int {
	acc := math.Max(0, math.Min(100, accuracyPercent))
	xp := CompletionBaseXP + int(math.Floor(acc/10))*CompletionPerDecileXP + completionBonus[reached]
	if timed && accumulatedSeconds < CompletionSpeedLimit {
		xp += CompletionSpeedBonusXP
	}
	return xp
}

// DialogueReward is the reward for a resolved negotiation. Unknown modes
// pay the loss amount even when won.
func DialogueReward(won bool, mode string) int {
	if !won {
		return DialogueLossReward
	}
	if r, ok := dialogueWinReward[mode]; ok {
		return r
	}
	return DialogueLossReward
}
