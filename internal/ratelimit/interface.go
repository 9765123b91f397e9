package ratelimit

import (
	"context"
	"time"
)

// Limiter is the single gate every outbound upstream call passes through.
type Limiter interface {
	// Acquire blocks until weight permits are available in every window.
	// It only fails when ctx is done or weight can never be satisfied.
	Acquire(ctx context.Context, weight int) error
	// OnThrottled suspends all future Acquire calls for at least retryAfter.
	OnThrottled(retryAfter time.Duration)
}
