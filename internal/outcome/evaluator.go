// Package outcome turns a dialogue transcript into a terminal result. It
// never fails: any generation problem yields a fixed fallback result.
package outcome

import (
	"context"
	"math"
	"strings"

	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/logger"
	"github.com/abhisek/skillforge/internal/reward"
)

const (
	// MaxListItems caps strengths and improvements.
	MaxListItems = 5
	// NeutralScore replaces a missing or non-numeric score.
	NeutralScore = 50
)

var (
	defaultFeedback     = "Thanks for completing the negotiation. Review the transcript to see where the prospect's interest rose and fell."
	defaultStrengths    = []string{"Kept the conversation going", "Engaged with the prospect's questions"}
	defaultImprovements = []string{"Ask more discovery questions before pitching", "Tie benefits directly to the prospect's stated needs"}
)

// Result is the terminal outcome of a dialogue.
type Result struct {
	Won          bool
	Feedback     string
	Strengths    []string
	Improvements []string
	// Score is always within [0, 100].
	Score int
	// RewardPoints is computed locally from Won and the mode.
	RewardPoints int
	// Fallback is set when the result did not come from the judge.
	Fallback bool
}

// Input is everything the judge sees.
type Input struct {
	Transcript     generation.Transcript
	PersonaName    string
	PersonaProfile string
	Mode           string
	Product        string
	// Hint reports a likely agreement spotted in the last reply. It only
	// biases the judge.
	Hint bool
}

// Judge produces raw verdicts; *generation.Gateway implements it.
type Judge interface {
	RequestVerdict(ctx context.Context, tr generation.Transcript, vc generation.VerdictContext) (*generation.Verdict, error)
}

type Evaluator struct {
	judge Judge
	log   *logger.Logger
}

func New(j Judge, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{judge: j, log: log}
}

// Evaluate asks the judge for a verdict and repairs it. A failed call
// yields Fallback(in.Mode).
func (e *Evaluator) Evaluate(ctx context.Context, in Input) Result {
	v, err := e.judge.RequestVerdict(ctx, in.Transcript, generation.VerdictContext{
		PersonaName:    in.PersonaName,
		PersonaProfile: in.PersonaProfile,
		Mode:           in.Mode,
		Product:        in.Product,
		PositiveHint:   in.Hint,
	})
	if err != nil || v == nil {
		e.log.Warn("verdict unavailable, using fallback result", "mode", in.Mode, "error", err)
		return Fallback(in.Mode)
	}
	return Repair(v, in.Mode)
}

// Fallback is the fixed result used when no verdict can be obtained.
func Fallback(mode string) Result {
	return Result{
		Won:          false,
		Feedback:     defaultFeedback,
		Strengths:    clone(defaultStrengths),
		Improvements: clone(defaultImprovements),
		Score:        NeutralScore,
		RewardPoints: reward.DialogueReward(false, mode),
		Fallback:     true,
	}
}

// Repair normalizes a verdict into a Result.
func Repair(v *generation.Verdict, mode string) Result {
	return Result{
		Won:          v.Won,
		Feedback:     orDefault(strings.TrimSpace(v.Feedback), defaultFeedback),
		Strengths:    repairList(v.Strengths, defaultStrengths),
		Improvements: repairList(v.Improvements, defaultImprovements),
		Score:        ClampScore(v.Score),
		RewardPoints: reward.DialogueReward(v.Won, mode),
	}
}

// ClampScore rounds a score into [0, 100]; nil maps to NeutralScore.
func ClampScore(score *float64) int {
	if score == nil || math.IsNaN(*score) {
		return NeutralScore
	}
	return int(math.Round(math.Max(0, math.Min(100, *score))))
}

func repairList(items, fallback []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == MaxListItems {
			break
		}
	}
	if len(out) == 0 {
		return clone(fallback)
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
