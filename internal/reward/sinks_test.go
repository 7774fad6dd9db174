package reward

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyLedger struct {
	Recorder
	failXP atomic.Int32
}

func (f *flakyLedger) ApplyXP(ctx context.Context, a XPAward) error {
	if f.failXP.Load() > 0 {
		f.failXP.Add(-1)
		return errors.New("sink down")
	}
	return f.Recorder.ApplyXP(ctx, a)
}

func TestDedup_DropsRepeats(t *testing.T) {
	rec := &Recorder{}
	d := NewDedup(rec)
	ctx := context.Background()

	award := XPAward{EventID: EventID("s1", "q1"), Amount: 20, Reason: ReasonQuestion}
	require.NoError(t, d.ApplyXP(ctx, award))
	require.NoError(t, d.ApplyXP(ctx, award))
	require.NoError(t, d.RecordQuizAttempt(ctx, Attempt{EventID: "s1:q1", Correct: true}))
	require.NoError(t, d.RecordQuizAttempt(ctx, Attempt{EventID: "s1:q1", Correct: true}))

	assert.Equal(t, 20, rec.TotalXP())
	assert.Len(t, rec.Attempts, 1)
}

func TestDedup_RetriesAfterFailure(t *testing.T) {
	f := &flakyLedger{}
	f.failXP.Store(1)
	d := NewDedup(f)
	ctx := context.Background()

	award := XPAward{EventID: "s1:completion", Amount: 300}
	require.Error(t, d.ApplyXP(ctx, award))
	require.NoError(t, d.ApplyXP(ctx, award))
	require.NoError(t, d.ApplyXP(ctx, award))
	assert.Equal(t, 300, f.TotalXP())
}

func TestDedup_EmptyIDAlwaysForwarded(t *testing.T) {
	rec := &Recorder{}
	d := NewDedup(rec)
	for i := 0; i < 3; i++ {
		require.NoError(t, d.ApplyXP(context.Background(), XPAward{Amount: 1}))
	}
	assert.Equal(t, 3, rec.TotalXP())
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, b}
	ctx := context.Background()

	require.NoError(t, m.ApplyXP(ctx, XPAward{EventID: "x", Amount: 5}))
	require.NoError(t, m.RecordAnalytics(ctx, Analytics{EventID: "y", Topic: "pricing-strategy"}))
	require.NoError(t, m.RecordLeaderboardEntry(ctx, LeaderboardEntry{EventID: "z"}))

	for _, r := range []*Recorder{a, b} {
		assert.Equal(t, 5, r.TotalXP())
		assert.Len(t, r.Analytics, 1)
		assert.Len(t, r.Leaderboard, 1)
	}
}

func TestMulti_ReportsErrorButDeliversToOthers(t *testing.T) {
	bad := &flakyLedger{}
	bad.failXP.Store(1)
	good := &Recorder{}

	err := Multi{bad, good}.ApplyXP(context.Background(), XPAward{Amount: 7})
	require.Error(t, err)
	assert.Equal(t, 7, good.TotalXP())
}

func TestNop(t *testing.T) {
	var l Ledger = Nop{}
	assert.NoError(t, l.ApplyXP(context.Background(), XPAward{Amount: 1}))
}
