// Package leaderboard keeps timed-quiz standings and XP totals in Redis
// sorted sets. Board implements reward.Ledger.
package leaderboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/skillforge/internal/reward"
)

// Client is the subset of *redis.Client used here.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	ZAddArgs(ctx context.Context, key string, args redis.ZAddArgs) *redis.IntCmd
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
}

// EventTTL is how long applied event IDs are remembered.
const EventTTL = 7 * 24 * time.Hour

// maxSeconds bounds the time component of a packed score.
const maxSeconds = 99999

// Standing is one leaderboard row.
type Standing struct {
	Rank             int
	User             string
	AccuracyPercent  float64
	TimeTakenSeconds int
}

// XPStanding is one row of the XP board.
type XPStanding struct {
	Rank int
	User string
	XP   int
}

type Board struct {
	client Client
	prefix string
}

// New returns a board whose keys start with prefix (default "skillforge").
func New(client Client, prefix string) *Board {
	if prefix == "" {
		prefix = "skillforge"
	}
	return &Board{client: client, prefix: prefix}
}

// Connect parses a redis:// URL into a client.
func Connect(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (b *Board) topicKey(topic string) string {
	return fmt.Sprintf("%s:lb:%s", b.prefix, topic)
}

func (b *Board) xpKey() string {
	return b.prefix + ":xp"
}

func (b *Board) eventKey(id string) string {
	return b.prefix + ":event:" + id
}

// packScore orders by accuracy descending, then time ascending.
func packScore(accuracy float64, seconds int) float64 {
	seconds = min(max(seconds, 0), maxSeconds)
	acc := math.Round(math.Max(0, math.Min(100, accuracy)) * 100)
	return acc*(maxSeconds+1) + float64(maxSeconds-seconds)
}

func unpackScore(score float64) (float64, int) {
	s := int64(score)
	acc := s / (maxSeconds + 1)
	rest := s % (maxSeconds + 1)
	return float64(acc) / 100, maxSeconds - int(rest)
}

// claim marks an event as applied. It reports false for a repeat.
func (b *Board) claim(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}
	ok, err := b.client.SetNX(ctx, b.eventKey(id), 1, EventTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim event %s: %w", id, err)
	}
	return ok, nil
}

func (b *Board) release(ctx context.Context, id string) {
	if id != "" {
		b.client.Del(ctx, b.eventKey(id))
	}
}

// ApplyXP adds to the user's XP total.
func (b *Board) ApplyXP(ctx context.Context, a reward.XPAward) error {
	ok, err := b.claim(ctx, a.EventID)
	if err != nil || !ok {
		return err
	}
	if err := b.client.ZIncrBy(ctx, b.xpKey(), float64(a.Amount), a.User).Err(); err != nil {
		b.release(ctx, a.EventID)
		return fmt.Errorf("incr xp: %w", err)
	}
	return nil
}

// RecordQuizAttempt is not tracked on the board.
func (b *Board) RecordQuizAttempt(context.Context, reward.Attempt) error { return nil }

// RecordAnalytics is not tracked on the board.
func (b *Board) RecordAnalytics(context.Context, reward.Analytics) error { return nil }

// RecordLeaderboardEntry keeps the user's best result for the topic.
func (b *Board) RecordLeaderboardEntry(ctx context.Context, e reward.LeaderboardEntry) error {
	ok, err := b.claim(ctx, e.EventID)
	if err != nil || !ok {
		return err
	}
	err = b.client.ZAddArgs(ctx, b.topicKey(e.Topic), redis.ZAddArgs{
		GT:      true,
		Members: []redis.Z{{Score: packScore(e.AccuracyPercent, e.TimeTakenSeconds), Member: e.User}},
	}).Err()
	if err != nil {
		b.release(ctx, e.EventID)
		return fmt.Errorf("add standing: %w", err)
	}
	return nil
}

// Top returns the best limit results for topic.
func (b *Board) Top(ctx context.Context, topic string, limit int) ([]Standing, error) {
	if limit <= 0 {
		return nil, nil
	}
	zs, err := b.client.ZRevRangeWithScores(ctx, b.topicKey(topic), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read standings: %w", err)
	}
	out := make([]Standing, len(zs))
	for i, z := range zs {
		acc, secs := unpackScore(z.Score)
		out[i] = Standing{Rank: i + 1, User: fmt.Sprint(z.Member), AccuracyPercent: acc, TimeTakenSeconds: secs}
	}
	return out, nil
}

// TopXP returns the users with the most XP.
func (b *Board) TopXP(ctx context.Context, limit int) ([]XPStanding, error) {
	if limit <= 0 {
		return nil, nil
	}
	zs, err := b.client.ZRevRangeWithScores(ctx, b.xpKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read xp: %w", err)
	}
	out := make([]XPStanding, len(zs))
	for i, z := range zs {
		out[i] = XPStanding{Rank: i + 1, User: fmt.Sprint(z.Member), XP: int(z.Score)}
	}
	return out, nil
}
