package retry_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/storefront/pkg/retry"
)

func TestBackoff_BaseDelay(t *testing.T) {
	t.Parallel()

	b := retry.NewBackoff()

	assert.Equal(t, time.Second, b.BaseDelay(0))
	assert.Equal(t, 2*time.Second, b.BaseDelay(1))
	assert.Equal(t, 4*time.Second, b.BaseDelay(2))
	assert.Equal(t, 16*time.Second, b.BaseDelay(4))
	assert.Equal(t, 30*time.Second, b.BaseDelay(5))
	assert.Equal(t, 30*time.Second, b.BaseDelay(100), "large attempts must not overflow")
	assert.Equal(t, time.Second, b.BaseDelay(-3))
}

func TestBackoff_MonotonicAndBounded(t *testing.T) {
	t.Parallel()

	b := retry.NewBackoff(
		retry.WithInitialDelay(150*time.Millisecond),
		retry.WithMaxDelay(10*time.Second),
	)

	prev := time.Duration(0)
	for attempt := range 64 {
		d := b.BaseDelay(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		assert.LessOrEqual(t, d, 10*time.Second, "attempt %d", attempt)
		prev = d
	}
}

func TestBackoff_JitterWithinThirtyPercent(t *testing.T) {
	t.Parallel()

	t.Run("lower bound", func(t *testing.T) {
		t.Parallel()
		b := retry.NewBackoff(retry.WithJitterSource(func() float64 { return 0 }))
		assert.Equal(t, 4*time.Second, b.Delay(2))
	})

	t.Run("upper bound", func(t *testing.T) {
		t.Parallel()
		b := retry.NewBackoff(retry.WithJitterSource(func() float64 { return 1 }))
		assert.Equal(t, 4*time.Second+1200*time.Millisecond, b.Delay(2))
	})

	t.Run("out of range source is clamped", func(t *testing.T) {
		t.Parallel()
		b := retry.NewBackoff(retry.WithJitterSource(func() float64 { return 7 }))
		assert.Equal(t, 1300*time.Millisecond, b.Delay(0))

		b = retry.NewBackoff(retry.WithJitterSource(func() float64 { return -1 }))
		assert.Equal(t, time.Second, b.Delay(0))
	})

	t.Run("random source", func(t *testing.T) {
		t.Parallel()
		r := rand.New(rand.NewPCG(1, 2))
		b := retry.NewBackoff(retry.WithJitterSource(r.Float64))
		for attempt := range 10 {
			for range 200 {
				base := b.BaseDelay(attempt)
				d := b.Delay(attempt)
				assert.GreaterOrEqual(t, d, base)
				assert.LessOrEqual(t, d, base+time.Duration(float64(base)*retry.MaxJitterFraction))
			}
		}
	})
}

func TestBackoff_NextBackOffAdvancesAndResets(t *testing.T) {
	t.Parallel()

	b := retry.NewBackoff(
		retry.WithInitialDelay(10*time.Millisecond),
		retry.WithJitterSource(func() float64 { return 0 }),
	)

	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 20*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 40*time.Millisecond, b.NextBackOff())

	b.Reset()
	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())
}
