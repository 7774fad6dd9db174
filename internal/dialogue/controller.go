// Package dialogue runs a timed sales negotiation against a generated
// counterpart and resolves it through the outcome evaluator.
package dialogue

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/abhisek/skillforge/internal/fsm"
	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/logger"
	"github.com/abhisek/skillforge/internal/outcome"
	"github.com/abhisek/skillforge/internal/reward"
	"github.com/abhisek/skillforge/internal/timer"
)

// Replier produces counterpart lines; *generation.Gateway implements it.
type Replier interface {
	RequestReply(ctx context.Context, rc generation.ReplyContext) (string, error)
}

// Evaluator resolves a finished transcript; *outcome.Evaluator implements
// it.
type Evaluator interface {
	Evaluate(ctx context.Context, in outcome.Input) outcome.Result
}

// Controller owns one negotiation session. Methods are safe for
// concurrent use. At most one reply request is outstanding at a time.
type Controller struct {
	replier   Replier
	evaluator Evaluator
	ledger    reward.Ledger
	log       *logger.Logger
	validate  *validator.Validate

	now          func() time.Time
	tickInterval time.Duration

	mu        sync.Mutex
	rng       *rand.Rand
	machine   *fsm.Machine[Phase]
	s         Session
	attempts  int
	epoch     uint64
	countdown *timer.Countdown
	// inflight is closed when the outstanding reply settles; resolved
	// when the outstanding evaluation does.
	inflight chan struct{}
	resolved chan struct{}
	baseCtx  context.Context
}

type Option func(*Controller)

func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithRand sets the source used for random persona selection.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTickInterval sets the countdown tick period. Zero disables the
// background ticker so callers drive Tick.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) { c.tickInterval = d }
}

// New creates a controller in the setup phase. A nil ledger discards the
// reward.
func New(r Replier, e Evaluator, ledger reward.Ledger, opts ...Option) *Controller {
	if ledger == nil {
		ledger = reward.Nop{}
	}
	c := &Controller{
		replier:      r,
		evaluator:    e,
		ledger:       ledger,
		log:          logger.Nop(),
		validate:     validator.New(),
		now:          time.Now,
		tickInterval: time.Second,
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xd1a1)),
		machine:      fsm.New(PhaseSetup, transitions),
		baseCtx:      context.Background(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start validates req, picks the persona and posts its opening line. An
// invalid request fails before any state changes.
func (c *Controller) Start(ctx context.Context, req StartRequest) error {
	req.Product = strings.TrimSpace(req.Product)
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("dialogue: invalid start request: %w", err)
	}
	var persona Persona
	if req.PersonaID != "" {
		p, ok := PersonaByID(req.PersonaID)
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownPersona, req.PersonaID)
		}
		persona = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.machine.Transition("start", PhaseActive); err != nil {
		return err
	}
	if persona.ID == "" {
		persona = personas[c.rng.IntN(len(personas))]
	}
	user := req.User
	if user == "" {
		user = "anonymous"
	}
	c.epoch++
	c.attempts++
	c.s = Session{
		ID:           uuid.NewString(),
		User:         user,
		Mode:         req.Mode,
		Persona:      persona,
		Product:      req.Product,
		AttemptCount: c.attempts,
	}
	c.baseCtx = context.WithoutCancel(ctx)
	c.appendMessage(generation.Counterpart, persona.Opening)

	epoch := c.epoch
	c.countdown = timer.New(req.Mode.Duration(), func() { c.expire(epoch) })
	if c.tickInterval > 0 {
		go c.countdown.Run(c.baseCtx, c.tickInterval)
	}
	c.log.Info("negotiation started", "session", c.s.ID, "mode", string(req.Mode), "persona", persona.ID)
	return nil
}

// Send posts an operator message and waits for the counterpart. A reply
// failure is answered with the persona's fallback line. A reply that
// reads like agreement moves straight to evaluation.
func (c *Controller) Send(ctx context.Context, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if err := c.machine.Transition("send", PhaseAwaitingReply); err != nil {
		c.mu.Unlock()
		return Turn{}, err
	}
	c.appendMessage(generation.Operator, text)
	c.countdown.Suspend()
	inflight := make(chan struct{})
	c.inflight = inflight
	epoch := c.epoch
	p := c.s.Persona
	rc := generation.ReplyContext{
		Transcript:     c.transcript(),
		PersonaName:    p.Name,
		PersonaProfile: p.Profile,
		BrevityHint:    p.Brevity,
		Product:        c.s.Product,
		Skepticism:     generation.Skepticism(string(c.s.Mode)),
	}
	c.mu.Unlock()

	reply, err := c.replier.RequestReply(ctx, rc)

	c.mu.Lock()
	if c.epoch != epoch {
		close(inflight)
		c.mu.Unlock()
		return Turn{}, ErrSuperseded
	}
	turn := Turn{}
	if err != nil {
		c.log.Warn("counterpart reply failed, using fallback line",
			"session", c.s.ID, "persona", p.ID, "error", err)
		c.s.LastError = err
		reply = p.Fallback
		turn.Fallback = true
	}
	turn.Reply = c.appendMessage(generation.Counterpart, reply)
	closing := !turn.Fallback && IsClosing(reply)
	// The last second can be counted just before Suspend above; expire
	// then finds the reply pending and leaves the evaluation to us.
	expired := c.countdown.Expired()
	if !closing && !expired {
		c.countdown.Resume()
		c.machine.Reset(PhaseActive)
		close(inflight)
		c.mu.Unlock()
		return turn, nil
	}

	op := "close"
	if expired {
		op = "expire"
		c.log.Info("negotiation time expired during reply", "session", c.s.ID)
	} else {
		c.log.Info("closing phrase detected, evaluating", "session", c.s.ID)
	}
	job, err := c.beginEvaluation(op, closing && !expired)
	close(inflight)
	c.mu.Unlock()
	if err != nil {
		return turn, err
	}
	res, err := c.finishEvaluation(ctx, job)
	if err != nil {
		return turn, err
	}
	turn.Result = &res
	return turn, nil
}

// End terminates the session manually and returns its result. A reply
// in flight is allowed to settle first; an evaluation already running is
// awaited.
func (c *Controller) End(ctx context.Context) (outcome.Result, error) {
	c.mu.Lock()
	for c.machine.Is(PhaseAwaitingReply, PhaseEvaluating) {
		evaluating := c.machine.Is(PhaseEvaluating)
		ch, epoch := c.inflight, c.epoch
		if evaluating {
			ch = c.resolved
		}
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return outcome.Result{}, ctx.Err()
		}

		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return outcome.Result{}, ErrSuperseded
		}
		if evaluating && c.s.Result != nil {
			res := *c.s.Result
			c.mu.Unlock()
			return res, nil
		}
	}
	job, err := c.beginEvaluation("end", false)
	c.mu.Unlock()
	if err != nil {
		return outcome.Result{}, err
	}
	return c.finishEvaluation(ctx, job)
}

// Tick advances the session countdown by one second and reports whether
// it was counted.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	cd := c.countdown
	c.mu.Unlock()
	if cd == nil {
		return false
	}
	return cd.Tick()
}

// Transcript returns a copy of the messages so far.
func (c *Controller) Transcript() generation.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript()
}

// Result returns the outcome once the session is resolved.
func (c *Controller) Result() (outcome.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.Result == nil {
		return outcome.Result{}, false
	}
	return *c.s.Result, true
}

func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.s
	s.Phase = c.machine.Current()
	s.Transcript = c.transcript()
	if c.countdown != nil {
		s.TimeRemainingSeconds = c.countdown.Remaining()
	}
	if c.s.Result != nil {
		r := *c.s.Result
		s.Result = &r
	}
	return s
}

// Reset discards the session; calls still in flight are ignored when
// they return.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
	c.epoch++
	c.machine.Reset(PhaseSetup)
	c.s = Session{AttemptCount: c.attempts}
}

// expire ends the session when its countdown runs out. A reply still
// pending is left to Send, which checks the countdown when it settles.
func (c *Controller) expire(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch || !c.machine.Is(PhaseActive) {
		c.mu.Unlock()
		return
	}
	c.log.Info("negotiation time expired", "session", c.s.ID)
	job, err := c.beginEvaluation("expire", false)
	ctx := c.baseCtx
	c.mu.Unlock()
	if err != nil {
		return
	}
	_, _ = c.finishEvaluation(ctx, job)
}

type evalJob struct {
	in    outcome.Input
	epoch uint64
	done  chan struct{}
}

// beginEvaluation moves to evaluating and freezes the countdown. Caller
// holds mu.
func (c *Controller) beginEvaluation(op string, hint bool) (evalJob, error) {
	if err := c.machine.Transition(op, PhaseEvaluating); err != nil {
		return evalJob{}, err
	}
	c.countdown.Suspend()
	c.resolved = make(chan struct{})
	return evalJob{
		in: outcome.Input{
			Transcript:     c.transcript(),
			PersonaName:    c.s.Persona.Name,
			PersonaProfile: c.s.Persona.Profile,
			Mode:           string(c.s.Mode),
			Product:        c.s.Product,
			Hint:           hint,
		},
		epoch: c.epoch,
		done:  c.resolved,
	}, nil
}

// finishEvaluation runs the evaluator, which always yields a result, and
// resolves the session.
func (c *Controller) finishEvaluation(ctx context.Context, job evalJob) (outcome.Result, error) {
	res := c.evaluator.Evaluate(ctx, job.in)

	c.mu.Lock()
	if c.epoch != job.epoch {
		c.mu.Unlock()
		close(job.done)
		return res, ErrSuperseded
	}
	c.s.Result = &res
	c.machine.Reset(PhaseResolved)
	c.countdown.Stop()
	award := reward.XPAward{
		EventID:   reward.EventID(c.s.ID, "outcome"),
		SessionID: c.s.ID,
		User:      c.s.User,
		Amount:    res.RewardPoints,
		Reason:    reward.ReasonDialogue,
		At:        c.now(),
	}
	c.log.Info("negotiation resolved", "session", c.s.ID, "won", res.Won, "score", res.Score, "fallback", res.Fallback)
	c.mu.Unlock()
	close(job.done)

	if award.Amount > 0 {
		if err := c.ledger.ApplyXP(ctx, award); err != nil {
			c.log.Warn("ledger reward write failed", "event", award.EventID, "error", err)
		}
	}
	return res, nil
}

// appendMessage adds a message to the transcript. Caller holds mu.
func (c *Controller) appendMessage(author generation.Author, text string) generation.Message {
	m := generation.Message{
		ID:     uuid.NewString(),
		Author: author,
		Text:   text,
		SentAt: c.now(),
	}
	c.s.Transcript = append(c.s.Transcript, m)
	return m
}

// transcript copies the transcript. Caller holds mu.
func (c *Controller) transcript() generation.Transcript {
	return append(generation.Transcript(nil), c.s.Transcript...)
}
