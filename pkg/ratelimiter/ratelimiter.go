package ratelimiter

import (
	"context"
	"time"
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	Reset(ctx context.Context, key string) error
}

// Config describes a fixed window.
type Config struct {
	Limit  int           // Requests allowed per window
	Window time.Duration // Window length
	Prefix string        // Key namespace inside the store
}

// Validate checks that the window is usable.
func (c Config) Validate() error {
	if c.Limit <= 0 || c.Window <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Result is the outcome of a single Allow call.
type Result struct {
	Limit     int
	Remaining int // Negative once the limit is exceeded
	ResetAt   time.Time
	now       time.Time
}

// Allowed reports whether the request fits in the window.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter is the time left until the window resets, or zero when allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	now := r.now
	if now.IsZero() {
		now = time.Now()
	}
	return max(0, r.ResetAt.Sub(now))
}
