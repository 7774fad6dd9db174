// Package generation is the only path to the text-generation provider.
// Every request is bounded by a deadline, cleaned, parsed and validated;
// callers receive either a complete domain value or an *Error.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/difficulty"
	"github.com/abhisek/skillforge/internal/llm"
	"github.com/abhisek/skillforge/internal/logger"
	"github.com/abhisek/skillforge/internal/observability"
)

// DefaultTimeout bounds every generation call.
const DefaultTimeout = 15 * time.Second

// Config tunes the gateway.
type Config struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	// MaxPriorQuestions caps the "already asked" list sent with question
	// requests.
	MaxPriorQuestions int
}

// DefaultConfig returns the standard gateway settings.
func DefaultConfig() Config {
	return Config{
		Timeout:           DefaultTimeout,
		MaxTokens:         700,
		Temperature:       0.7,
		MaxPriorQuestions: 8,
	}
}

// Gateway turns provider calls into validated domain values.
type Gateway struct {
	provider llm.Provider
	catalog  *catalog.Catalog
	config   Config
	log      *logger.Logger
	tracer   trace.Tracer

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithRand sets the random source used to resolve catalog.AllTopics.
func WithRand(r *rand.Rand) Option {
	return func(g *Gateway) { g.rng = r }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = t }
}

// New creates a Gateway. Zero fields of cfg take their defaults.
func New(p llm.Provider, cat *catalog.Catalog, cfg Config, opts ...Option) *Gateway {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	g := &Gateway{
		provider: p,
		catalog:  cat,
		config:   cfg,
		log:      logger.Nop(),
		tracer:   observability.Tracer(),
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Catalog returns the topic catalog the gateway draws prompt material from.
func (g *Gateway) Catalog() *catalog.Catalog {
	return g.catalog
}

// ResolveTopic maps a filter to a concrete topic; catalog.AllTopics picks
// one uniformly at random.
func (g *Gateway) ResolveTopic(filter string) (catalog.Topic, error) {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return g.catalog.Resolve(filter, g.rng)
}

type callResult struct {
	resp *llm.Response
	err  error
}

// call races the provider against the gateway deadline. The result
// channel is buffered so a provider that finishes after the deadline
// never blocks; its response is dropped.
func (g *Gateway) call(ctx context.Context, op, purpose string, req llm.Request) (string, error) {
	ctx, span := g.tracer.Start(ctx, "generation."+op, trace.WithAttributes(
		attribute.String("generation.purpose", purpose),
		attribute.String("generation.model", g.provider.ModelID()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, purpose), g.config.Timeout)
	defer cancel()

	results := make(chan callResult, 1)
	go func() {
		resp, err := g.provider.Generate(ctx, req)
		results <- callResult{resp: resp, err: err}
	}()

	var gerr *Error
	select {
	case r := <-results:
		switch {
		case r.err != nil:
			gerr = classify(op, r.err)
		case r.resp == nil:
			gerr = malformed(op, errors.New("empty response"))
		case r.resp.StopReason == "max_tokens":
			gerr = malformed(op, &llm.ErrMaxTokensExceeded{Content: r.resp.Content})
		default:
			return string(r.resp.Content), nil
		}
	case <-ctx.Done():
		gerr = classify(op, ctx.Err())
	}

	span.RecordError(gerr)
	span.SetStatus(codes.Error, gerr.Kind.String())
	span.SetAttributes(attribute.String("generation.error_kind", gerr.Kind.String()))
	g.log.Warn("generation failed", "op", op, "kind", gerr.Kind.String(), "error", gerr.Err)
	return "", gerr
}

// callJSON performs call and returns the validated JSON object.
func (g *Gateway) callJSON(ctx context.Context, op, purpose string, req llm.Request) (json.RawMessage, error) {
	text, err := g.call(ctx, op, purpose, req)
	if err != nil {
		return nil, err
	}
	obj, ok := extractObject(text)
	if !ok {
		return nil, g.fail(malformed(op, fmt.Errorf("no JSON object in response")))
	}
	raw := json.RawMessage(obj)
	if err := llm.Validate(req.Schema, raw); err != nil {
		return nil, g.fail(malformed(op, err))
	}
	return raw, nil
}

// fail logs a payload that arrived but could not be used.
func (g *Gateway) fail(e *Error) *Error {
	g.log.Warn("generation payload rejected", "op", e.Op, "kind", e.Kind.String(), "error", e.Err)
	return e
}

// QuestionOption adjusts a single question request.
type QuestionOption func(*questionRequest)

type questionRequest struct {
	prior []string
}

// Avoiding lists prompts already asked in the session so the provider can
// avoid repeats.
func Avoiding(prompts []string) QuestionOption {
	return func(r *questionRequest) { r.prior = prompts }
}

type questionPayload struct {
	Kind          string   `json:"kind"`
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Concept       string   `json:"concept"`
}

// RequestQuestion generates one question for topicFilter at level. An
// unknown topic filter is a caller error, not a generation failure.
func (g *Gateway) RequestQuestion(ctx context.Context, topicFilter string, level difficulty.Level, opts ...QuestionOption) (*Question, error) {
	topic, err := g.ResolveTopic(topicFilter)
	if err != nil {
		return nil, err
	}
	var qr questionRequest
	for _, o := range opts {
		o(&qr)
	}

	raw, err := g.callJSON(ctx, "question", "quiz-question", llm.Request{
		System:      questionSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildQuestionMessage(topic, level, qr.prior, g.config.MaxPriorQuestions)}},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, err
	}

	var p questionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, g.fail(malformed("question", err))
	}
	q, err := p.toQuestion()
	if err != nil {
		return nil, g.fail(malformed("question", err))
	}
	q.ID = uuid.NewString()
	q.Difficulty = level
	q.Topic = topic.ID
	if q.Concept == "" && len(topic.KeyConcepts) > 0 {
		q.Concept = topic.KeyConcepts[0]
	}
	return q, nil
}

func (p questionPayload) toQuestion() (*Question, error) {
	q := &Question{
		Kind:          QuestionKind(p.Kind),
		Prompt:        strings.TrimSpace(p.Prompt),
		CorrectAnswer: strings.TrimSpace(p.CorrectAnswer),
		Explanation:   strings.TrimSpace(p.Explanation),
		Concept:       strings.TrimSpace(p.Concept),
	}
	if q.Prompt == "" || q.CorrectAnswer == "" {
		return nil, errors.New("empty prompt or answer")
	}

	switch q.Kind {
	case MultipleChoice:
		for _, c := range p.Choices {
			if c = strings.TrimSpace(c); c != "" {
				q.Choices = append(q.Choices, c)
			}
		}
		if len(q.Choices) < 2 {
			return nil, fmt.Errorf("multipleChoice needs at least 2 choices, got %d", len(q.Choices))
		}
		found := false
		for _, c := range q.Choices {
			if c == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("correct answer %q is not among the choices", q.CorrectAnswer)
		}
	case TrueFalse:
		b, ok := coerceBool(q.CorrectAnswer)
		if !ok {
			return nil, fmt.Errorf("trueFalse answer %q is not boolean", q.CorrectAnswer)
		}
		q.CorrectAnswer = "False"
		if b {
			q.CorrectAnswer = "True"
		}
	case ShortAnswer, Scenario:
	default:
		return nil, fmt.Errorf("unknown question kind %q", p.Kind)
	}
	return q, nil
}

// RequestFeedback returns end-of-quiz coaching text.
func (g *Gateway) RequestFeedback(ctx context.Context, s SessionSummary) (string, error) {
	text, err := g.call(ctx, "feedback", "quiz-feedback", llm.Request{
		System:      feedbackSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildFeedbackMessage(s)}},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	if text = cleanText(text); text == "" {
		return "", g.fail(malformed("feedback", errors.New("empty feedback")))
	}
	return text, nil
}

// RequestReply returns the counterpart's next line in a dialogue.
func (g *Gateway) RequestReply(ctx context.Context, rc ReplyContext) (string, error) {
	text, err := g.call(ctx, "reply", "negotiation-reply", llm.Request{
		System:      buildReplySystem(rc),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildReplyMessage(rc)}},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	if text = cleanText(text); text == "" {
		return "", g.fail(malformed("reply", errors.New("empty reply")))
	}
	return text, nil
}

type verdictPayload struct {
	Won          any      `json:"won"`
	Score        any      `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// RequestVerdict judges a finished dialogue. Won must be boolean-like;
// a missing or non-numeric score is reported as nil for the caller to
// repair.
func (g *Gateway) RequestVerdict(ctx context.Context, tr Transcript, vc VerdictContext) (*Verdict, error) {
	raw, err := g.callJSON(ctx, "verdict", "negotiation-verdict", llm.Request{
		System:      verdictSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildVerdictMessage(tr, vc)}},
		Schema:      VerdictSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	var p verdictPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, g.fail(malformed("verdict", err))
	}
	won, ok := coerceBool(p.Won)
	if !ok {
		return nil, g.fail(malformed("verdict", fmt.Errorf("won %v is not boolean", p.Won)))
	}
	return &Verdict{
		Won:          won,
		Score:        coerceNumber(p.Score),
		Feedback:     strings.TrimSpace(p.Feedback),
		Strengths:    p.Strengths,
		Improvements: p.Improvements,
	}, nil
}

// coerceBool accepts booleans, 0/1 and the strings true/false/yes/no.
func coerceBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case float64:
		switch x {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

func coerceNumber(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return &f
		}
	}
	return nil
}
