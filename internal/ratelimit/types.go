package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrWeightTooLarge is returned when a single Acquire asks for more permits than a window holds.
var ErrWeightTooLarge = errors.New("requested weight exceeds window limit")

// Window is one rolling budget: at most Limit permits in any Period.
type Window struct {
	Limit  int
	Period time.Duration
}

// Riot development-key budgets.
var (
	ShortWindow = Window{Limit: 20, Period: time.Second}
	LongWindow  = Window{Limit: 100, Period: 120 * time.Second}
)

type windowState struct {
	Window
	hits []time.Time
}

// SlidingWindow enforces several rolling windows at once. It is safe for concurrent use.
type SlidingWindow struct {
	mu           sync.Mutex
	windows      []*windowState
	blockedUntil time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// WindowStats is a point-in-time view of one window.
type WindowStats struct {
	Limit  int           `json:"limit"`
	Period time.Duration `json:"period"`
	InUse  int           `json:"in_use"`
}

// Stats is a point-in-time view of the limiter.
type Stats struct {
	Windows      []WindowStats `json:"windows"`
	BlockedUntil *time.Time    `json:"blocked_until,omitempty"`
}

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)
