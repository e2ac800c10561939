package retry

import (
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMaxAttempts  = 5

	// MaxJitterFraction bounds the random addition to a computed delay.
	MaxJitterFraction = 0.3
)

var _ backoff.BackOff = (*Backoff)(nil)

// Backoff computes exponential delays capped at a maximum, with additive jitter.
// A Backoff is stateful through NextBackOff and must not be shared between
// concurrent retry loops; Delay and BaseDelay are pure.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	jitter  func() float64
	attempt int
}

// BackoffOption configures a Backoff.
type BackoffOption func(*Backoff)

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) {
		if d > 0 {
			b.initial = d
		}
	}
}

// WithMaxDelay sets the ceiling for computed delays.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) {
		if d > 0 {
			b.max = d
		}
	}
}

// WithJitterSource replaces the random source. fn must return values in [0, 1);
// values outside are clamped.
func WithJitterSource(fn func() float64) BackoffOption {
	return func(b *Backoff) {
		if fn != nil {
			b.jitter = fn
		}
	}
}

// NewBackoff creates a Backoff with a 1s initial delay and a 30s ceiling.
func NewBackoff(opts ...BackoffOption) *Backoff {
	b := &Backoff{
		initial: DefaultInitialDelay,
		max:     DefaultMaxDelay,
		jitter:  rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.initial > b.max {
		b.initial = b.max
	}
	return b
}

// BaseDelay returns min(initial * 2^attempt, max) for a 0-based attempt.
func (b *Backoff) BaseDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := b.initial
	for i := 0; i < attempt && d < b.max; i++ {
		d *= 2
	}
	return min(d, b.max)
}

// Jitter returns the random addition for a base delay, within [0, MaxJitterFraction*base].
func (b *Backoff) Jitter(base time.Duration) time.Duration {
	f := b.jitter()
	switch {
	case f < 0:
		f = 0
	case f > 1:
		f = 1
	}
	return time.Duration(float64(base) * MaxJitterFraction * f)
}

// Delay returns BaseDelay(attempt) plus jitter.
func (b *Backoff) Delay(attempt int) time.Duration {
	base := b.BaseDelay(attempt)
	return base + b.Jitter(base)
}

// NextBackOff returns the delay for the next attempt and advances the counter.
func (b *Backoff) NextBackOff() time.Duration {
	d := b.Delay(b.attempt)
	b.attempt++
	return d
}

// Reset rewinds the attempt counter.
func (b *Backoff) Reset() {
	b.attempt = 0
}
