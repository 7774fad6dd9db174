package reward

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Dedup forwards each EventID to the inner ledger at most once. An event
// whose delivery failed may be retried.
type Dedup struct {
	inner Ledger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedup wraps inner.
func NewDedup(inner Ledger) *Dedup {
	return &Dedup{inner: inner, seen: make(map[string]struct{})}
}

func (d *Dedup) claim(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	return true
}

func (d *Dedup) release(id string) {
	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
}

func (d *Dedup) forward(id string, fn func() error) error {
	if id == "" {
		return fn()
	}
	if !d.claim(id) {
		return nil
	}
	if err := fn(); err != nil {
		d.release(id)
		return err
	}
	return nil
}

func (d *Dedup) ApplyXP(ctx context.Context, a XPAward) error {
	return d.forward(a.EventID, func() error { return d.inner.ApplyXP(ctx, a) })
}

func (d *Dedup) RecordQuizAttempt(ctx context.Context, a Attempt) error {
	return d.forward(a.EventID, func() error { return d.inner.RecordQuizAttempt(ctx, a) })
}

func (d *Dedup) RecordAnalytics(ctx context.Context, a Analytics) error {
	return d.forward(a.EventID, func() error { return d.inner.RecordAnalytics(ctx, a) })
}

func (d *Dedup) RecordLeaderboardEntry(ctx context.Context, e LeaderboardEntry) error {
	return d.forward(e.EventID, func() error { return d.inner.RecordLeaderboardEntry(ctx, e) })
}

// Multi delivers every event to all sinks concurrently. All sinks are
// attempted; the first error is returned.
type Multi []Ledger

func (m Multi) fanOut(ctx context.Context, fn func(context.Context, Ledger) error) error {
	var g errgroup.Group
	for _, l := range m {
		g.Go(func() error { return fn(ctx, l) })
	}
	return g.Wait()
}

func (m Multi) ApplyXP(ctx context.Context, a XPAward) error {
	return m.fanOut(ctx, func(ctx context.Context, l Ledger) error { return l.ApplyXP(ctx, a) })
}

func (m Multi) RecordQuizAttempt(ctx context.Context, a Attempt) error {
	return m.fanOut(ctx, func(ctx context.Context, l Ledger) error { return l.RecordQuizAttempt(ctx, a) })
}

func (m Multi) RecordAnalytics(ctx context.Context, a Analytics) error {
	return m.fanOut(ctx, func(ctx context.Context, l Ledger) error { return l.RecordAnalytics(ctx, a) })
}

func (m Multi) RecordLeaderboardEntry(ctx context.Context, e LeaderboardEntry) error {
	return m.fanOut(ctx, func(ctx context.Context, l Ledger) error { return l.RecordLeaderboardEntry(ctx, e) })
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu          sync.Mutex
	XP          []XPAward
	Attempts    []Attempt
	Analytics   []Analytics
	Leaderboard []LeaderboardEntry
}

func (r *Recorder) ApplyXP(_ context.Context, a XPAward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.XP = append(r.XP, a)
	return nil
}

func (r *Recorder) RecordQuizAttempt(_ context.Context, a Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Attempts = append(r.Attempts, a)
	return nil
}

func (r *Recorder) RecordAnalytics(_ context.Context, a Analytics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Analytics = append(r.Analytics, a)
	return nil
}

func (r *Recorder) RecordLeaderboardEntry(_ context.Context, e LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Leaderboard = append(r.Leaderboard, e)
	return nil
}

// TotalXP sums all recorded awards.
func (r *Recorder) TotalXP() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, a := range r.XP {
		total += a.Amount
	}
	return total
}

// XPFor returns the amount recorded under reason, or 0.
func (r *Recorder) XPFor(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, a := range r.XP {
		if a.Reason == reason {
			total += a.Amount
		}
	}
	return total
}

// Snapshot returns copies of everything recorded so far.
func (r *Recorder) Snapshot() ([]XPAward, []Attempt, []Analytics, []LeaderboardEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]XPAward(nil), r.XP...),
		append([]Attempt(nil), r.Attempts...),
		append([]Analytics(nil), r.Analytics...),
		append([]LeaderboardEntry(nil), r.Leaderboard...)
}
