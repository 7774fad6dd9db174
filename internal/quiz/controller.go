// Package quiz runs one adaptive quiz: it requests questions through the
// generation gateway, scores answers, moves along the difficulty ladder
// and writes reward events to the ledger.
package quiz

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/difficulty"
	"github.com/abhisek/skillforge/internal/fsm"
	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/logger"
	"github.com/abhisek/skillforge/internal/reward"
	"github.com/abhisek/skillforge/internal/timer"
)

// Generator is the part of the generation gateway the quiz needs.
type Generator interface {
	RequestQuestion(ctx context.Context, topicFilter string, level difficulty.Level, opts ...generation.QuestionOption) (*generation.Question, error)
	RequestFeedback(ctx context.Context, s generation.SessionSummary) (string, error)
}

// Controller owns a single quiz session. All methods are safe for
// concurrent use; generation calls run without holding the lock and their
// results are dropped if the session was reset meanwhile.
type Controller struct {
	gen      Generator
	catalog  *catalog.Catalog
	ledger   reward.Ledger
	log      *logger.Logger
	validate *validator.Validate

	now           func() time.Time
	tickInterval  time.Duration
	fallbackAfter int

	mu        sync.Mutex
	machine   *fsm.Machine[Phase]
	s         Session
	epoch     uint64
	countdown *timer.Countdown
	shownAt   time.Time
	asked     []string
	missed    []string
	// topics lists the distinct topics answered, in order.
	topics    []string
	failures  int
	baseCtx   context.Context
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithClock replaces time.Now for practice-mode timing.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTickInterval sets how often the timed-mode countdown ticks. Zero
// disables the background ticker; callers then drive Tick themselves.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) { c.tickInterval = d }
}

// WithFallbackAfter sets how many consecutive failed question requests
// are tolerated before a local question is served.
func WithFallbackAfter(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.fallbackAfter = n
		}
	}
}

// New creates a controller in the setup phase. A nil ledger discards
// reward events.
func New(gen Generator, cat *catalog.Catalog, ledger reward.Ledger, opts ...Option) *Controller {
	if ledger == nil {
		ledger = reward.Nop{}
	}
	c := &Controller{
		gen:           gen,
		catalog:       cat,
		ledger:        ledger,
		log:           logger.Nop(),
		validate:      validator.New(),
		now:           time.Now,
		tickInterval:  time.Second,
		fallbackAfter: DefaultFallbackAfter,
		machine:       fsm.New(PhaseSetup, transitions),
		baseCtx:       context.Background(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start validates req and requests the first question at easy difficulty.
// A generation failure aborts the start and returns the session to setup.
func (c *Controller) Start(ctx context.Context, req StartRequest) error {
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("quiz: invalid start request: %w", err)
	}
	if !c.catalog.Contains(req.TopicFilter) {
		return fmt.Errorf("%w %q", ErrUnknownTopic, req.TopicFilter)
	}

	c.mu.Lock()
	if err := c.machine.Transition("start", PhaseAwaitingGeneration); err != nil {
		c.mu.Unlock()
		return err
	}
	c.epoch++
	epoch := c.epoch
	user := req.User
	if user == "" {
		user = "anonymous"
	}
	c.s = Session{
		ID:          uuid.NewString(),
		User:        user,
		TopicFilter: req.TopicFilter,
		Mode:        req.Mode,
		Difficulty:  difficulty.Easy,
	}
	c.baseCtx = context.WithoutCancel(ctx)
	c.mu.Unlock()

	q, err := c.gen.RequestQuestion(ctx, req.TopicFilter, difficulty.Easy)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return ErrSuperseded
	}
	if err != nil {
		c.machine.Reset(PhaseSetup)
		c.s = Session{}
		return fmt.Errorf("quiz: first question: %w", err)
	}
	c.show(q)
	return nil
}

// StageAnswer records the learner's current answer without submitting it.
func (c *Controller) StageAnswer(answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.machine.Require("stage", PhaseActive); err != nil {
		return err
	}
	c.s.Answer = answer
	c.s.HasAnswer = true
	return nil
}

// SubmitAnswer scores the staged answer and moves to feedback.
func (c *Controller) SubmitAnswer(ctx context.Context) error {
	c.mu.Lock()
	if err := c.machine.Require("submit", PhaseActive); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.s.HasAnswer {
		c.mu.Unlock()
		return ErrNoAnswer
	}
	out := c.submit(false)
	c.mu.Unlock()

	c.flush(ctx, out)
	return nil
}

// Advance steps the ladder and requests the next question. A failed
// request leaves the session in feedback with LastError set so the caller
// can retry; after fallbackAfter consecutive failures a local question is
// served instead.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if err := c.machine.Transition("advance", PhaseAwaitingGeneration); err != nil {
		c.mu.Unlock()
		return err
	}
	acc, _ := difficulty.Accuracy(c.s.CorrectCount, c.s.QuestionsAnswered)
	next := difficulty.Step(c.s.Difficulty, acc)
	c.epoch++
	epoch := c.epoch
	filter := c.s.TopicFilter
	prior := append([]string(nil), c.asked...)
	c.mu.Unlock()

	q, err := c.gen.RequestQuestion(ctx, filter, next, generation.Avoiding(prior))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return ErrSuperseded
	}
	if err != nil {
		c.failures++
		c.s.LastError = err
		if c.failures < c.fallbackAfter {
			c.log.Warn("next question failed, waiting for retry",
				"session", c.s.ID, "failures", c.failures, "error", err)
			c.machine.Reset(PhaseFeedback)
			return nil
		}
		c.log.Warn("next question failed, serving local question",
			"session", c.s.ID, "failures", c.failures, "error", err)
		q = fallbackQuestion(c.fallbackTopic(), next, c.s.QuestionsAnswered)
	}
	c.s.Difficulty = next
	c.show(q)
	return nil
}

// End finishes the run from active or feedback. Completion XP uses the
// difficulty reached. Feedback text falls back to a local summary when
// the provider fails.
func (c *Controller) End(ctx context.Context) (Completion, error) {
	c.mu.Lock()
	onScreen := c.machine.Is(PhaseActive)
	if err := c.machine.Transition("end", PhaseComplete); err != nil {
		c.mu.Unlock()
		return Completion{}, err
	}
	if onScreen {
		_, elapsed := c.stopClock()
		c.s.AccumulatedTimeSeconds += elapsed
	}
	c.epoch++
	epoch := c.epoch

	timed := c.s.Mode == Timed
	acc, _ := difficulty.Accuracy(c.s.CorrectCount, c.s.QuestionsAnswered)
	xp := reward.CompletionXP(acc, c.s.Difficulty, timed, c.s.AccumulatedTimeSeconds)
	c.s.CompletionXP = xp
	c.s.TotalXP += xp
	c.s.TimeRemainingSeconds = 0

	now := c.now()
	out := outbox{
		xp: []reward.XPAward{c.award("completion", xp, reward.ReasonCompletion, now)},
		analytics: &reward.Analytics{
			EventID:           reward.EventID(c.s.ID, "analytics"),
			SessionID:         c.s.ID,
			User:              c.s.User,
			Topic:             c.topicLabel(),
			QuestionsAnswered: c.s.QuestionsAnswered,
			CorrectAnswers:    c.s.CorrectCount,
			TimeTakenSeconds:  c.s.AccumulatedTimeSeconds,
			AccuracyPercent:   acc,
			Difficulty:        c.s.Difficulty,
			At:                now,
		},
	}
	if timed {
		out.board = &reward.LeaderboardEntry{
			EventID:           reward.EventID(c.s.ID, "leaderboard"),
			SessionID:         c.s.ID,
			User:              c.s.User,
			Topic:             c.boardTopic(),
			AccuracyPercent:   acc,
			TimeTakenSeconds:  c.s.AccumulatedTimeSeconds,
			QuestionsAnswered: c.s.QuestionsAnswered,
			Difficulty:        c.s.Difficulty,
			Mode:              string(c.s.Mode),
			At:                now,
		}
	}
	summary := generation.SessionSummary{
		Topic:             c.topicLabel(),
		Mode:              string(c.s.Mode),
		QuestionsAnswered: c.s.QuestionsAnswered,
		CorrectAnswers:    c.s.CorrectCount,
		AccuracyPercent:   acc,
		Difficulty:        c.s.Difficulty,
		TimeTakenSeconds:  c.s.AccumulatedTimeSeconds,
		MissedConcepts:    append([]string(nil), c.missed...),
	}
	c.mu.Unlock()

	c.flush(ctx, out)

	done := Completion{AccuracyPercent: acc, Difficulty: summary.Difficulty, XP: xp}
	text, err := c.gen.RequestFeedback(ctx, summary)
	if err != nil {
		c.log.Warn("session feedback failed, using local summary", "error", err)
		text = localFeedback(summary)
		done.LocalFeedback = true
	}
	done.Feedback = text

	c.mu.Lock()
	if c.epoch == epoch {
		c.s.Feedback = text
		if err != nil {
			c.s.LastError = err
		}
	}
	c.mu.Unlock()
	return done, nil
}

// Tick advances the timed-mode countdown by one second. It reports
// whether the tick was counted; it is a no-op while no question is on
// screen.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	cd := c.countdown
	c.mu.Unlock()
	if cd == nil {
		return false
	}
	return cd.Tick()
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.s
	s.Phase = c.machine.Current()
	if c.countdown != nil {
		s.TimeRemainingSeconds = c.countdown.Remaining()
	}
	return s
}

// Reset discards the session. Calls in flight are ignored when they
// return.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
	c.epoch++
	c.machine.Reset(PhaseSetup)
	c.s = Session{}
	c.asked = nil
	c.missed = nil
	c.topics = nil
	c.failures = 0
}

// show puts q on screen and starts its countdown. Caller holds mu.
func (c *Controller) show(q *generation.Question) {
	c.s.Question = q
	c.s.Answer = ""
	c.s.HasAnswer = false
	c.s.TimedOut = false
	c.failures = 0
	c.asked = append(c.asked, q.Prompt)
	c.shownAt = c.now()
	c.machine.Reset(PhaseActive)

	if c.s.Mode != Timed {
		return
	}
	qid := q.ID
	c.countdown = timer.New(QuestionSeconds, func() { c.expire(qid) })
	c.s.TimeRemainingSeconds = QuestionSeconds
	if c.tickInterval > 0 {
		go c.countdown.Run(c.baseCtx, c.tickInterval)
	}
}

// expire auto-submits whatever is staged when the question's countdown
// reaches zero.
func (c *Controller) expire(qid string) {
	c.mu.Lock()
	if !c.machine.Is(PhaseActive) || c.s.Question == nil || c.s.Question.ID != qid {
		c.mu.Unlock()
		return
	}
	out := c.submit(true)
	ctx := c.baseCtx
	c.mu.Unlock()

	c.flush(ctx, out)
}

// submit scores the current question. Caller holds mu.
func (c *Controller) submit(timedOut bool) outbox {
	q := c.s.Question
	remaining, elapsed := c.stopClock()

	correct := c.s.HasAnswer && q.Check(c.s.Answer)
	c.s.HasAnswer = true
	c.s.TimedOut = timedOut

	c.s.QuestionsAnswered++
	if correct {
		c.s.CorrectCount++
	} else if q.Concept != "" {
		c.missed = append(c.missed, q.Concept)
	}
	if q.Topic != "" && !slices.Contains(c.topics, q.Topic) {
		c.topics = append(c.topics, q.Topic)
	}
	c.s.AccumulatedTimeSeconds += elapsed
	c.s.TimeRemainingSeconds = remaining

	xp := 0
	if correct {
		xp = reward.QuestionXP(q.Difficulty, c.s.Mode == Timed, remaining)
	}
	c.s.LastCorrect = correct
	c.s.LastXP = xp
	c.s.TotalXP += xp
	c.machine.Reset(PhaseFeedback)

	now := c.now()
	n := c.s.QuestionsAnswered
	out := outbox{attempts: []reward.Attempt{{
		EventID:   reward.EventID(c.s.ID, fmt.Sprintf("q%d-attempt", n)),
		SessionID: c.s.ID,
		User:      c.s.User,
		Topic:     q.Topic,
		Correct:   correct,
		At:        now,
	}}}
	if xp > 0 {
		out.xp = append(out.xp, c.award(fmt.Sprintf("q%d-xp", n), xp, reward.ReasonQuestion, now))
	}
	return out
}

// stopClock ends timing of the question on screen and returns the seconds
// left and spent on it. Timed mode reads the countdown, practice mode the
// clock. Caller holds mu.
func (c *Controller) stopClock() (remaining, elapsed int) {
	if c.countdown == nil {
		return 0, int(c.now().Sub(c.shownAt) / time.Second)
	}
	remaining, elapsed = c.countdown.Remaining(), c.countdown.Elapsed()
	c.countdown.Stop()
	c.countdown = nil
	return remaining, elapsed
}

// topicLabel names the topics a run covered: the filter when nothing was
// answered, otherwise the answered topics joined by commas. Caller holds mu.
func (c *Controller) topicLabel() string {
	if len(c.topics) == 0 {
		return c.s.TopicFilter
	}
	return strings.Join(c.topics, ",")
}

// boardTopic is the leaderboard a run ranks on: its single topic, or the
// mixed "all" board when it spanned several. Caller holds mu.
func (c *Controller) boardTopic() string {
	switch len(c.topics) {
	case 0:
		return c.s.TopicFilter
	case 1:
		return c.topics[0]
	}
	return catalog.AllTopics
}

func (c *Controller) award(label string, amount int, reason string, at time.Time) reward.XPAward {
	return reward.XPAward{
		EventID:   reward.EventID(c.s.ID, label),
		SessionID: c.s.ID,
		User:      c.s.User,
		Amount:    amount,
		Reason:    reason,
		At:        at,
	}
}

// fallbackTopic picks the topic of the last question, or the filter's
// topic, or the first catalog entry. Caller holds mu.
func (c *Controller) fallbackTopic() catalog.Topic {
	if q := c.s.Question; q != nil {
		if t, ok := c.catalog.Get(q.Topic); ok {
			return t
		}
	}
	if t, ok := c.catalog.Get(c.s.TopicFilter); ok {
		return t
	}
	return c.catalog.Topics()[0]
}

// outbox collects ledger writes made under the lock so they can be sent
// after it is released.
type outbox struct {
	xp        []reward.XPAward
	attempts  []reward.Attempt
	analytics *reward.Analytics
	board     *reward.LeaderboardEntry
}

func (c *Controller) flush(ctx context.Context, out outbox) {
	for _, a := range out.xp {
		if err := c.ledger.ApplyXP(ctx, a); err != nil {
			c.log.Warn("ledger xp write failed", "event", a.EventID, "error", err)
		}
	}
	for _, a := range out.attempts {
		if err := c.ledger.RecordQuizAttempt(ctx, a); err != nil {
			c.log.Warn("ledger attempt write failed", "event", a.EventID, "error", err)
		}
	}
	if out.analytics != nil {
		if err := c.ledger.RecordAnalytics(ctx, *out.analytics); err != nil {
			c.log.Warn("ledger analytics write failed", "event", out.analytics.EventID, "error", err)
		}
	}
	if out.board != nil {
		if err := c.ledger.RecordLeaderboardEntry(ctx, *out.board); err != nil {
			c.log.Warn("ledger leaderboard write failed", "event", out.board.EventID, "error", err)
		}
	}
}
