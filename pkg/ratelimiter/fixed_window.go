package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/storefront/pkg/tokenstore"
)

var _ RateLimiter = (*FixedWindow)(nil)

// FixedWindow counts requests per key in windows that open on the first hit.
type FixedWindow struct {
	store tokenstore.Store
	cfg   Config
	now   func() time.Time
}

// FixedWindowOption configures a FixedWindow.
type FixedWindowOption func(*FixedWindow)

// WithClock replaces time.Now when computing Retry-After values.
func WithClock(now func() time.Time) FixedWindowOption {
	return func(fw *FixedWindow) {
		if now != nil {
			fw.now = now
		}
	}
}

// NewFixedWindow creates a limiter backed by store.
func NewFixedWindow(store tokenstore.Store, cfg Config, opts ...FixedWindowOption) (*FixedWindow, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: limit and window must be positive", err)
	}
	fw := &FixedWindow{store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(fw)
	}
	return fw, nil
}

// Config returns the window configuration.
func (fw *FixedWindow) Config() Config {
	return fw.cfg
}

// Allow counts the request and reports whether it fits in the current window.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	count, resetAt, err := fw.store.Increment(ctx, fw.cfg.Prefix+key, fw.cfg.Window)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &Result{
		Limit:     fw.cfg.Limit,
		Remaining: fw.cfg.Limit - int(count),
		ResetAt:   resetAt,
		now:       fw.now(),
	}, nil
}

// Reset clears the counter for key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	if err := fw.store.Delete(ctx, fw.cfg.Prefix+key); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
