package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/async"
)

func TestExec(t *testing.T) {
	t.Parallel()

	var got string
	f := async.Exec(t.Context(), "RFQ-1", func(_ context.Context, ref string) error {
		got = ref
		return nil
	})
	require.NoError(t, f.Await())
	assert.True(t, f.IsComplete())
	assert.Equal(t, "RFQ-1", got)
}

func TestExec_ErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("smtp down")
	f := async.Exec(t.Context(), 0, func(context.Context, int) error { return boom })
	assert.ErrorIs(t, f.Await(), boom)
	assert.ErrorIs(t, f.Await(), boom, "result is stable across calls")
}

func TestExec_CanceledContextSkipsFunction(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var called atomic.Bool
	f := async.Exec(ctx, 0, func(context.Context, int) error {
		called.Store(true)
		return nil
	})
	assert.ErrorIs(t, f.Await(), context.Canceled)
	assert.False(t, called.Load())
}

func TestAwaitContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	f := async.Exec(t.Context(), 0, func(context.Context, int) error {
		<-release
		return nil
	})
	assert.False(t, f.IsComplete())

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	err := f.AwaitContext(ctx)
	assert.ErrorIs(t, err, async.ErrNotComplete)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	assert.NoError(t, f.AwaitContext(t.Context()))
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	inc := func(context.Context, int) error {
		n.Add(1)
		return nil
	}
	first := errors.New("first")
	second := errors.New("second")

	futures := []*async.ExecFuture{
		async.Exec(t.Context(), 0, inc),
		async.Exec(t.Context(), 0, func(context.Context, int) error { return first }),
		nil,
		async.Exec(t.Context(), 0, inc),
		async.Exec(t.Context(), 0, func(context.Context, int) error { return second }),
	}
	err := async.WaitAll(t.Context(), futures...)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Equal(t, int32(2), n.Load())

	assert.NoError(t, async.WaitAll(t.Context()))
}

func TestWaitAll_StopsWhenContextEnds(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	defer close(block)
	f := async.Exec(t.Context(), 0, func(context.Context, int) error {
		<-block
		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, async.WaitAll(ctx, f), async.ErrNotComplete)
}
