package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdown_ExpiresOnce(t *testing.T) {
	fired := 0
	c := New(3, func() { fired++ })

	for range 10 {
		c.Tick()
	}

	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, 3, c.Elapsed())
	assert.True(t, c.Stopped())
	assert.True(t, c.Expired())
}

func TestCountdown_SuspendedTicksIgnored(t *testing.T) {
	c := New(5, nil)

	require.True(t, c.Tick())
	c.Suspend()
	for range 100 {
		assert.False(t, c.Tick())
	}
	c.Resume()
	require.True(t, c.Tick())

	assert.Equal(t, 3, c.Remaining())
	assert.Equal(t, 2, c.Elapsed())
}

func TestCountdown_SuspendNests(t *testing.T) {
	c := New(5, nil)
	c.Suspend()
	c.Suspend()
	c.Resume()
	assert.True(t, c.Suspended())
	assert.False(t, c.Tick())
	c.Resume()
	assert.False(t, c.Suspended())
	assert.True(t, c.Tick())
}

func TestCountdown_StopDoesNotFire(t *testing.T) {
	fired := false
	c := New(1, func() { fired = true })
	c.Stop()
	c.Tick()
	assert.False(t, fired)
	assert.False(t, c.Expired())

	select {
	case <-c.Done():
	default:
		t.Fatal("done channel should be closed after Stop")
	}
}

func TestCountdown_OnTickReportsRemaining(t *testing.T) {
	var seen []int
	c := New(3, nil, WithOnTick(func(r int) { seen = append(seen, r) }))
	for range 3 {
		c.Tick()
	}
	assert.Equal(t, []int{2, 1, 0}, seen)
}

func TestCountdown_Run(t *testing.T) {
	expired := make(chan struct{})
	c := New(3, func() { close(expired) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go c.Run(ctx, time.Millisecond)

	select {
	case <-expired:
	case <-ctx.Done():
		t.Fatal("countdown did not expire")
	}
	assert.Equal(t, 3, c.Elapsed())
}
