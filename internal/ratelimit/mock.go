package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Mock is a Limiter that admits every call immediately and records what it saw.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	AcquireFunc func(ctx context.Context, weight int) error

	AcquireCalls     []int
	OnThrottledCalls []time.Duration
}

var _ Limiter = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Acquire(ctx context.Context, weight int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AcquireCalls = append(m.AcquireCalls, weight)
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, weight)
	}
	return ctx.Err()
}

func (m *Mock) OnThrottled(retryAfter time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OnThrottledCalls = append(m.OnThrottledCalls, retryAfter)
}

// Acquired returns the number of Acquire calls.
func (m *Mock) Acquired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.AcquireCalls)
}

// Throttled returns the recorded OnThrottled durations.
func (m *Mock) Throttled() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.OnThrottledCalls...)
}
