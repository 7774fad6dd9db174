// Package events publishes reward events to a message bus through
// watermill. Publisher implements reward.Ledger.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/abhisek/skillforge/internal/logger"
	"github.com/abhisek/skillforge/internal/reward"
)

// Event types carried in the "event_type" metadata header.
const (
	TypeXPAwarded        = "xp.awarded"
	TypeQuizAttempt      = "quiz.attempt"
	TypeQuizAnalytics    = "quiz.analytics"
	TypeLeaderboardEntry = "leaderboard.entry"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "skillforge.rewards"

// Event is the JSON body of every published message.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	User      string    `json:"user"`
	At        time.Time `json:"at"`

	Amount int    `json:"amount,omitempty"`
	Reason string `json:"reason,omitempty"`

	Topic             string  `json:"topic,omitempty"`
	Correct           *bool   `json:"correct,omitempty"`
	QuestionsAnswered int     `json:"questionsAnswered,omitempty"`
	CorrectAnswers    int     `json:"correctAnswers,omitempty"`
	TimeTakenSeconds  int     `json:"timeTakenSeconds,omitempty"`
	AccuracyPercent   float64 `json:"accuracyPercent,omitempty"`
	Difficulty        string  `json:"difficulty,omitempty"`
	Mode              string  `json:"mode,omitempty"`
}

// Publisher sends reward events to one topic.
type Publisher struct {
	publisher message.Publisher
	topic     string
	log       *logger.Logger
}

// NewPublisher wraps any watermill publisher.
func NewPublisher(pub message.Publisher, topic string, log *logger.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{publisher: pub, topic: topic, log: log}
}

// NewKafkaPublisher connects a watermill Kafka publisher.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (*Publisher, error) {
	if log == nil {
		log = logger.Nop()
	}
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, NewLoggerAdapter(log))
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return NewPublisher(pub, topic, log), nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

func (p *Publisher) publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	msg := message.NewMessage(e.ID, body)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", e.Type)
	msg.Metadata.Set("session_id", e.SessionID)
	msg.Metadata.Set("timestamp", e.At.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.log.Error("publish reward event failed", "event_id", e.ID, "event_type", e.Type, "error", err)
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	p.log.Debug("published reward event", "event_id", e.ID, "event_type", e.Type, "topic", p.topic)
	return nil
}

func (p *Publisher) ApplyXP(ctx context.Context, a reward.XPAward) error {
	return p.publish(ctx, Event{
		ID: a.EventID, Type: TypeXPAwarded, SessionID: a.SessionID, User: a.User, At: a.At,
		Amount: a.Amount, Reason: a.Reason,
	})
}

func (p *Publisher) RecordQuizAttempt(ctx context.Context, a reward.Attempt) error {
	correct := a.Correct
	return p.publish(ctx, Event{
		ID: a.EventID, Type: TypeQuizAttempt, SessionID: a.SessionID, User: a.User, At: a.At,
		Topic: a.Topic, Correct: &correct,
	})
}

func (p *Publisher) RecordAnalytics(ctx context.Context, a reward.Analytics) error {
	return p.publish(ctx, Event{
		ID: a.EventID, Type: TypeQuizAnalytics, SessionID: a.SessionID, User: a.User, At: a.At,
		Topic:             a.Topic,
		QuestionsAnswered: a.QuestionsAnswered,
		CorrectAnswers:    a.CorrectAnswers,
		TimeTakenSeconds:  a.TimeTakenSeconds,
		AccuracyPercent:   a.AccuracyPercent,
		Difficulty:        a.Difficulty.String(),
	})
}

func (p *Publisher) RecordLeaderboardEntry(ctx context.Context, e reward.LeaderboardEntry) error {
	return p.publish(ctx, Event{
		ID: e.EventID, Type: TypeLeaderboardEntry, SessionID: e.SessionID, User: e.User, At: e.At,
		Topic:             e.Topic,
		QuestionsAnswered: e.QuestionsAnswered,
		TimeTakenSeconds:  e.TimeTakenSeconds,
		AccuracyPercent:   e.AccuracyPercent,
		Difficulty:        e.Difficulty.String(),
		Mode:              e.Mode,
	})
}
