package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances virtual time whenever the limiter sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) TotalSlept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, d := range c.sleeps {
		total += d
	}
	return total
}

func TestAcquire_ShortWindow(t *testing.T) {
	clock := newFakeClock()
	l := NewRiotDefault(WithClock(clock.Now, clock.Sleep))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, l.Acquire(ctx, 1))
	}
	assert.Zero(t, clock.TotalSlept(), "first 20 permits should be admitted without waiting")

	require.NoError(t, l.Acquire(ctx, 1))
	assert.Equal(t, time.Second, clock.TotalSlept(), "21st permit must wait for the 1s window to roll")
}

func TestAcquire_LongWindow(t *testing.T) {
	clock := newFakeClock()
	l := NewRiotDefault(WithClock(clock.Now, clock.Sleep))
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, l.Acquire(ctx, 1))
	}
	start := clock.Now()
	require.NoError(t, l.Acquire(ctx, 1))

	// The 101st permit can only fit once the very first one leaves the 120s window.
	assert.GreaterOrEqual(t, clock.Now().Sub(start), 120*time.Second-5*time.Second)
	stats := l.Stats()
	require.Len(t, stats.Windows, 2)
	assert.LessOrEqual(t, stats.Windows[1].InUse, 100)
}

func TestAcquire_NeverExceedsWindows(t *testing.T) {
	clock := newFakeClock()
	l := NewRiotDefault(WithClock(clock.Now, clock.Sleep))
	ctx := context.Background()

	var admitted []time.Time
	for i := 0; i < 250; i++ {
		require.NoError(t, l.Acquire(ctx, 1))
		admitted = append(admitted, clock.Now())
	}
	for i := range admitted {
		inSecond, inTwoMinutes := 0, 0
		for j := i; j < len(admitted); j++ {
			if admitted[j].Sub(admitted[i]) < time.Second {
				inSecond++
			}
			if admitted[j].Sub(admitted[i]) < 120*time.Second {
				inTwoMinutes++
			}
		}
		require.LessOrEqual(t, inSecond, 20)
		require.LessOrEqual(t, inTwoMinutes, 100)
	}
}

func TestAcquire_Weight(t *testing.T) {
	clock := newFakeClock()
	l := New([]Window{{Limit: 5, Period: time.Second}}, WithClock(clock.Now, clock.Sleep))
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, 3))
	require.NoError(t, l.Acquire(ctx, 2))
	assert.Zero(t, clock.TotalSlept())

	require.NoError(t, l.Acquire(ctx, 2))
	assert.Equal(t, time.Second, clock.TotalSlept())

	err := l.Acquire(ctx, 6)
	assert.ErrorIs(t, err, ErrWeightTooLarge)
}

func TestOnThrottled_SuspendsAcquire(t *testing.T) {
	clock := newFakeClock()
	l := NewRiotDefault(WithClock(clock.Now, clock.Sleep))
	ctx := context.Background()

	l.OnThrottled(7 * time.Second)
	require.NotNil(t, l.Stats().BlockedUntil)

	require.NoError(t, l.Acquire(ctx, 1))
	assert.Equal(t, 7*time.Second, clock.TotalSlept())
}

func TestOnThrottled_ShorterDoesNotShortenSuspension(t *testing.T) {
	clock := newFakeClock()
	l := NewRiotDefault(WithClock(clock.Now, clock.Sleep))

	l.OnThrottled(10 * time.Second)
	l.OnThrottled(2 * time.Second)
	require.NoError(t, l.Acquire(context.Background(), 1))
	assert.Equal(t, 10*time.Second, clock.TotalSlept())
}

func TestAcquire_Cancelled(t *testing.T) {
	l := NewRiotDefault()
	l.OnThrottled(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquire_ConcurrentCallers(t *testing.T) {
	clock := newFakeClock()
	l := New([]Window{{Limit: 10, Period: time.Second}}, WithClock(clock.Now, clock.Sleep))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(context.Background(), 1))
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, l.Stats().Windows[0].InUse)
}
