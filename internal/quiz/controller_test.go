package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/difficulty"
	"github.com/abhisek/skillforge/internal/fsm"
	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/reward"
)

type fakeGen struct {
	mu       sync.Mutex
	levels   []difficulty.Level
	question func(n int) (*generation.Question, error)
	feedback func() (string, error)
	// entered, when set, receives once per question call before it runs.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeGen) RequestQuestion(_ context.Context, topic string, level difficulty.Level, _ ...generation.QuestionOption) (*generation.Question, error) {
	f.mu.Lock()
	f.levels = append(f.levels, level)
	n := len(f.levels)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if f.question != nil {
		return f.question(n)
	}
	return &generation.Question{
		ID:            fmt.Sprintf("q%d", n),
		Kind:          generation.ShortAnswer,
		Difficulty:    level,
		Prompt:        fmt.Sprintf("question %d", n),
		CorrectAnswer: "right",
		Topic:         topic,
		Concept:       fmt.Sprintf("concept %d", n),
	}, nil
}

func (f *fakeGen) RequestFeedback(context.Context, generation.SessionSummary) (string, error) {
	if f.feedback != nil {
		return f.feedback()
	}
	return "well done", nil
}

func (f *fakeGen) requestedLevels() []difficulty.Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]difficulty.Level(nil), f.levels...)
}

func newTestController(gen Generator, ledger reward.Ledger, opts ...Option) *Controller {
	opts = append([]Option{WithTickInterval(0)}, opts...)
	return New(gen, catalog.Default(), ledger, opts...)
}

func answer(t *testing.T, c *Controller, text string, ticks int) {
	t.Helper()
	for range ticks {
		require.True(t, c.Tick())
	}
	require.NoError(t, c.StageAnswer(text))
	require.NoError(t, c.SubmitAnswer(context.Background()))
}

func TestTimedScenario_ReachesMedium(t *testing.T) {
	gen := &fakeGen{}
	rec := &reward.Recorder{}
	c := newTestController(gen, rec)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, StartRequest{TopicFilter: "marketing-mix", Mode: Timed, User: "sam"}))

	answers := []string{"right", "wrong", "right", "right", "right"}
	for i, a := range answers {
		answer(t, c, a, 6)
		s := c.Snapshot()
		require.LessOrEqual(t, s.CorrectCount, s.QuestionsAnswered)
		if i < len(answers)-1 {
			require.NoError(t, c.Advance(ctx))
		}
	}

	done, err := c.End(ctx)
	require.NoError(t, err)

	s := c.Snapshot()
	assert.Equal(t, PhaseComplete, s.Phase)
	assert.Equal(t, 5, s.QuestionsAnswered)
	assert.Equal(t, 4, s.CorrectCount)
	assert.Equal(t, 30, s.AccumulatedTimeSeconds)
	assert.Equal(t, difficulty.Medium, done.Difficulty)
	assert.InDelta(t, 80.0, done.AccuracyPercent, 1e-9)
	assert.Equal(t, 300, done.XP)
	assert.Equal(t, "well done", done.Feedback)

	assert.Equal(t, []difficulty.Level{
		difficulty.Easy, difficulty.Medium, difficulty.Medium, difficulty.Medium, difficulty.Medium,
	}, gen.requestedLevels())

	// easy 20+5, three medium answers at 20+5+5, one miss
	assert.Equal(t, 25+3*30, rec.XPFor(reward.ReasonQuestion))
	assert.Equal(t, 300, rec.XPFor(reward.ReasonCompletion))
	assert.Len(t, rec.Attempts, 5)
	require.Len(t, rec.Analytics, 1)
	assert.Equal(t, "marketing-mix", rec.Analytics[0].Topic)
	require.Len(t, rec.Leaderboard, 1)
	assert.Equal(t, "sam", rec.Leaderboard[0].User)
	assert.Equal(t, "timed", rec.Leaderboard[0].Mode)
}

func TestSubmit_InvariantsUnderRandomAnswers(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	c := newTestController(&fakeGen{}, nil)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx, StartRequest{TopicFilter: catalog.AllTopics, Mode: Practice}))

	for range 40 {
		a := "wrong"
		if rng.IntN(2) == 0 {
			a = "  right "
		}
		require.NoError(t, c.StageAnswer(a))
		require.NoError(t, c.SubmitAnswer(ctx))
		s := c.Snapshot()
		require.LessOrEqual(t, s.CorrectCount, s.QuestionsAnswered)
		require.Equal(t, PhaseFeedback, s.Phase)
		require.True(t, s.HasAnswer)
		require.NoError(t, c.Advance(ctx))
	}
	_, err := c.End(ctx)
	require.NoError(t, err)
}

func TestPractice_NoSpeedBonusAndNoLeaderboard(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	rec := &reward.Recorder{}
	c := newTestController(&fakeGen{}, rec, WithClock(clock))
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, StartRequest{TopicFilter: "pricing-strategy", Mode: Practice}))
	assert.False(t, c.Tick(), "practice mode has no countdown")
	now = now.Add(12 * time.Second)
	require.NoError(t, c.StageAnswer("right"))
	require.NoError(t, c.SubmitAnswer(ctx))

	s := c.Snapshot()
	assert.Equal(t, 20, s.LastXP)
	assert.Equal(t, 12, s.AccumulatedTimeSeconds)

	_, err := c.End(ctx)
	require.NoError(t, err)
	assert.Empty(t, rec.Leaderboard)
	assert.Len(t, rec.Analytics, 1)
}

func TestEnd_CountsUnansweredQuestionTimeInBothModes(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	practice := newTestController(&fakeGen{}, nil, WithClock(func() time.Time { return now }))
	require.NoError(t, practice.Start(ctx, StartRequest{TopicFilter: "pricing-strategy", Mode: Practice}))
	now = now.Add(10 * time.Second)
	require.NoError(t, practice.StageAnswer("right"))
	require.NoError(t, practice.SubmitAnswer(ctx))
	require.NoError(t, practice.Advance(ctx))
	now = now.Add(7 * time.Second)
	_, err := practice.End(ctx)
	require.NoError(t, err)
	assert.Equal(t, 17, practice.Snapshot().AccumulatedTimeSeconds)

	timed := newTestController(&fakeGen{}, nil)
	require.NoError(t, timed.Start(ctx, StartRequest{TopicFilter: "pricing-strategy", Mode: Timed}))
	answer(t, timed, "right", 10)
	require.NoError(t, timed.Advance(ctx))
	for range 7 {
		require.True(t, timed.Tick())
	}
	_, err = timed.End(ctx)
	require.NoError(t, err)
	assert.Equal(t, 17, timed.Snapshot().AccumulatedTimeSeconds)
}

func TestEnd_RecordsResolvedTopics(t *testing.T) {
	topics := []string{"pricing-strategy", "value-proposition", "pricing-strategy"}
	gen := &fakeGen{question: func(n int) (*generation.Question, error) {
		return &generation.Question{
			ID: fmt.Sprintf("q%d", n), Kind: generation.ShortAnswer, Prompt: fmt.Sprintf("question %d", n),
			CorrectAnswer: "right", Topic: topics[n-1],
		}, nil
	}}
	rec := &reward.Recorder{}
	c := newTestController(gen, rec)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx, StartRequest{TopicFilter: catalog.AllTopics, Mode: Timed}))
	for i := range topics {
		answer(t, c, "right", 1)
		if i < len(topics)-1 {
			require.NoError(t, c.Advance(ctx))
		}
	}
	_, err := c.End(ctx)
	require.NoError(t, err)

	require.Len(t, rec.Analytics, 1)
	assert.Equal(t, "pricing-strategy,value-proposition", rec.Analytics[0].Topic)
	require.Len(t, rec.Leaderboard, 1)
	assert.Equal(t, catalog.AllTopics, rec.Leaderboard[0].Topic, "mixed runs rank on the all board")
}

func TestEnd_SingleResolvedTopicRanksOnThatTopic(t *testing.T) {
	gen := &fakeGen{question: func(n int) (*generation.Question, error) {
		return &generation.Question{ID: "q1", Kind: generation.ShortAnswer, Prompt: "p", CorrectAnswer: "right", Topic: "objection-handling"}, nil
	}}
	rec := &reward.Recorder{}
	c := newTestController(gen, rec)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx, StartRequest{TopicFilter: catalog.AllTopics, Mode: Timed}))
	answer(t, c, "right", 1)
	_, err := c.End(ctx)
	require.NoError(t, err)

	require.Len(t, rec.Leaderboard, 1)
	assert.Equal(t, "objection-handling", rec.Leaderboard[0].Topic)
	assert.Equal(t, "objection-handling", rec.Analytics[0].Topic)
}

func TestTimer_ExpiryAutoSubmitsOnce(t *testing.T) {
	rec := &reward.Recorder{}
	c := newTestController(&fakeGen{}, rec)
	require.NoError(t, c.Start(context.Background(), StartRequest{TopicFilter: "marketing-mix", Mode: Timed}))

	for range QuestionSeconds {
		require.True(t, c.Tick())
	}
	assert.False(t, c.Tick(), "countdown must stop after expiry")

	s := c.Snapshot()
	assert.Equal(t, PhaseFeedback, s.Phase)
	assert.True(t, s.TimedOut)
	assert.False(t, s.LastCorrect)
	assert.Equal(t, 1, s.QuestionsAnswered)
	assert.Equal(t, QuestionSeconds, s.AccumulatedTimeSeconds)
	assert.Len(t, rec.Attempts, 1)
	assert.Empty(t, rec.XP)
}

func TestTimer_ExpirySubmitsStagedAnswer(t *testing.T) {
	c := newTestController(&fakeGen{}, nil)
	require.NoError(t, c.Start(context.Background(), StartRequest{TopicFilter: "marketing-mix", Mode: Timed}))
	require.NoError(t, c.StageAnswer("right"))
	for range QuestionSeconds {
		c.Tick()
	}
	s := c.Snapshot()
	assert.True(t, s.LastCorrect)
	assert.Equal(t, 20, s.LastXP, "no speed bonus with zero seconds left")
}

func TestTimer_NotRunningWhileAwaitingGeneration(t *testing.T) {
	gen := &fakeGen{}
	c := newTestController(gen, nil)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx, StartRequest{TopicFilter: "marketing-mix", Mode: Timed}))
	answer(t, c, "right", 3)

	gen.entered = make(chan struct{})
	gen.release = make(chan struct{})
	errc := make(chan error, 1)
	go func() { errc <- c.Advance(ctx) }()
	<-gen.entered

	assert.Equal(t, PhaseAwaitingGeneration, c.Snapshot().Phase)
	assert.False(t, c.Tick())
	var iv *fsm.InvariantViolation
	assert.ErrorAs(t, c.StageAnswer("x"), &iv)
	assert.ErrorAs(t, c.SubmitAnswer(ctx), &iv)

	close(gen.release)
	require.NoError(t, <-errc)
	s := c.Snapshot()
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, QuestionSeconds, s.TimeRemainingSeconds)
}

func TestSubmit_RequiresStagedAnswer(t *testing.T) {
	c := newTestController(&fakeGen{}, nil)
	require.NoError(t, c.Start(context.Background(), StartRequest{TopicFilter: "marketing-mix", Mode: Practice}))
	assert.ErrorIs(t, c.SubmitAnswer(context.Background()), ErrNoAnswer)
	assert.Equal(t, PhaseActive, c.Snapshot().Phase)
}

func TestPhaseGuards(t *testing.T) {
	c := newTestController(&fakeGen{}, nil)
	ctx := context.Background()
	var iv *fsm.InvariantViolation

	assert.ErrorAs(t, c.SubmitAnswer(ctx), &iv)
	assert.ErrorAs(t, c.Advance(ctx), &iv)
	_, err := c.End(ctx)
	assert.ErrorAs(t, err, &iv)

	require.NoError(t, c.Start(ctx, StartRequest{TopicFilter: "marketing-mix", Mode: Practice}))
	assert.ErrorAs(t, c.Advance(ctx), &iv, "advance needs feedback")
	assert.ErrorAs(t, c.Start(ctx, StartRequest{TopicFilter: "marketing-mix", Mode: Practice}), &iv)
}

func TestStart_Validation(t *testing.T) {
	c := newTestController(&fakeGen{}, nil)
	ctx := context.Background()

	assert.Error(t, c.Start(ctx, StartRequest{TopicFilter: "", Mode: Timed}))
	assert.Error(t, c.Start(ctx, StartRequest{TopicFilter: "marketing-mix", Mode: "relaxed"}))
	assert.ErrorIs(t, c.Start(ctx, StartRequest{TopicFilter: "astrology", Mode: Timed}), ErrUnknownTopic)
	assert.Equal(t, PhaseSetup, c.Snapshot().Phase)
}

func TestStart_GenerationFailureSurfaces(t *testing.T) {
	gen := &fakeGen{question: func(int) (*generation.Question, error) {
		return nil, &generation.Error{Kind: generation.Timeout, Op: "question", Err: context.DeadlineExceeded}
	}}
	c := newTestController(gen, nil)

	err := c.Start(context.Background(), StartRequest{TopicFilter: "marketing-mix", Mode: Timed})
	require.Error(t, err)
	assert.True(t, generation.IsKind(err, generation.Timeout))
	assert.Equal(t, PhaseSetup, c.Snapshot().Phase)
}

func TestAdvance_RetryThenFallbackQuestion(t *testing.T) {
	gen := &fakeGen{}
	gen.question = func(n int) (*generation.Question, error) {
		if n == 1 {
			return &generation.Question{ID: "q1", Kind: generation.ShortAnswer, Prompt: "p", CorrectAnswer: "right", Topic: "marketing-mix"}, nil
		}
		return nil, &generation.Error{Kind: generation.Malformed, Op: "question", Err: errors.New("junk")}
	}
	c := newTestController(gen, nil)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx, StartRequest{TopicFilter: "marketing-mix", Mode: Practice}))
	require.NoError(t, c.StageAnswer("right"))
	require.NoError(t, c.SubmitAnswer(ctx))

	require.NoError(t, c.Advance(ctx))
	s := c.Snapshot()
	assert.Equal(t, PhaseFeedback, s.Phase)
	assert.True(t, generation.IsKind(s.LastError, generation.Malformed))
	assert.Equal(t, difficulty.Easy, s.Difficulty, "failed advance must not move the ladder")

	require.NoError(t, c.Advance(ctx))
	s = c.Snapshot()
	assert.Equal(t, PhaseActive, s.Phase)
	require.NotNil(t, s.Question)
	assert.Equal(t, generation.TrueFalse, s.Question.Kind)
	assert.Equal(t, "marketing-mix", s.Question.Topic)
	assert.Equal(t, difficulty.Medium, s.Difficulty)
	assert.Equal(t, []difficulty.Level{difficulty.Easy, difficulty.Medium, difficulty.Medium}, gen.requestedLevels())

	require.NoError(t, c.StageAnswer("True"))
	require.NoError(t, c.SubmitAnswer(ctx))
	assert.True(t, c.Snapshot().LastCorrect)
}

func TestEnd_LocalFeedbackOnFailure(t *testing.T) {
	gen := &fakeGen{feedback: func() (string, error) {
		return "", &generation.Error{Kind: generation.Transport, Op: "feedback", Err: errors.New("down")}
	}}
	c := newTestController(gen, nil)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx, StartRequest{TopicFilter: "marketing-mix", Mode: Practice}))
	require.NoError(t, c.StageAnswer("nope"))
	require.NoError(t, c.SubmitAnswer(ctx))

	done, err := c.End(ctx)
	require.NoError(t, err)
	assert.True(t, done.LocalFeedback)
	assert.Contains(t, done.Feedback, "0 of 1")
	assert.Contains(t, done.Feedback, "concept 1")
	assert.Equal(t, done.Feedback, c.Snapshot().Feedback)
	assert.Equal(t, 50, done.XP)
}

func TestReset_DiscardsLateQuestion(t *testing.T) {
	gen := &fakeGen{entered: make(chan struct{}), release: make(chan struct{})}
	c := newTestController(gen, nil)

	errc := make(chan error, 1)
	go func() {
		errc <- c.Start(context.Background(), StartRequest{TopicFilter: "marketing-mix", Mode: Timed})
	}()
	<-gen.entered
	c.Reset()
	close(gen.release)

	assert.ErrorIs(t, <-errc, ErrSuperseded)
	s := c.Snapshot()
	assert.Equal(t, PhaseSetup, s.Phase)
	assert.Nil(t, s.Question)
}

func TestLocalFeedback_Bands(t *testing.T) {
	assert.Contains(t, localFeedback(generation.SessionSummary{}), "Answer a few questions")
	assert.Contains(t, localFeedback(generation.SessionSummary{QuestionsAnswered: 5, CorrectAnswers: 5, AccuracyPercent: 100}), "Strong work")
	assert.Contains(t, localFeedback(generation.SessionSummary{QuestionsAnswered: 4, CorrectAnswers: 1, AccuracyPercent: 25}), "Review")
}
