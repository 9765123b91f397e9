package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

var _ Limiter = (*SlidingWindow)(nil)

// WithClock replaces the time source and the sleep function. Used by tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *SlidingWindow) {
		l.now = now
		l.sleep = sleep
	}
}

// New creates a limiter enforcing every given window concurrently.
func New(windows []Window, opts ...Option) *SlidingWindow {
	l := &SlidingWindow{
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, w := range windows {
		l.windows = append(l.windows, &windowState{Window: w})
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewRiotDefault creates a limiter with the 20/1s and 100/120s development-key budgets.
func NewRiotDefault(opts ...Option) *SlidingWindow {
	return New([]Window{ShortWindow, LongWindow}, opts...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *SlidingWindow) Acquire(ctx context.Context, weight int) error {
	if weight <= 0 {
		weight = 1
	}
	for _, w := range l.windows {
		if weight > w.Limit {
			return fmt.Errorf("%w: weight %d, limit %d per %s", ErrWeightTooLarge, weight, w.Limit, w.Period)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		now := l.now()
		wait := l.waitLocked(now, weight)
		if wait <= 0 {
			for _, w := range l.windows {
				for i := 0; i < weight; i++ {
					w.hits = append(w.hits, now)
				}
			}
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		log.Debug("Rate limit reached, waiting", "wait_ms", wait.Milliseconds(), "weight", weight)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// waitLocked prunes expired hits and returns how long the caller must wait
// before weight permits fit in every window. Zero means admit now.
func (l *SlidingWindow) waitLocked(now time.Time, weight int) time.Duration {
	var wait time.Duration
	if now.Before(l.blockedUntil) {
		wait = l.blockedUntil.Sub(now)
	}
	for _, w := range l.windows {
		cutoff := now.Add(-w.Period)
		kept := w.hits[:0]
		for _, t := range w.hits {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		w.hits = kept

		excess := len(w.hits) + weight - w.Limit
		if excess > 0 {
			// The excess-th oldest hit has to leave the window first.
			if d := w.hits[excess-1].Add(w.Period).Sub(now); d > wait {
				wait = d
			}
		}
	}
	return wait
}

func (l *SlidingWindow) OnThrottled(retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until := l.now().Add(retryAfter)
	if until.After(l.blockedUntil) {
		l.blockedUntil = until
	}
	log.Warn("Upstream throttled requests, suspending", "retry_after_s", retryAfter.Seconds(), "until", l.blockedUntil)
}

// Stats reports current window occupancy.
func (l *SlidingWindow) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	var st Stats
	for _, w := range l.windows {
		cutoff := now.Add(-w.Period)
		inUse := 0
		for _, t := range w.hits {
			if t.After(cutoff) {
				inUse++
			}
		}
		st.Windows = append(st.Windows, WindowStats{Limit: w.Limit, Period: w.Period, InUse: inUse})
	}
	if now.Before(l.blockedUntil) {
		until := l.blockedUntil
		st.BlockedUntil = &until
	}
	return st
}
