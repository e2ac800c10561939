package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Executor runs operations under the retry policy.
// It is safe for concurrent use; every call to Do gets its own Backoff.
type Executor struct {
	maxAttempts int
	classifier  Classifier
	backoffOpts []BackoffOption
	logger      *slog.Logger
	onRetry     func(name string, attempt int, fault Fault, err error)
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxAttempts sets the total number of invocations, including the first one.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithClassifier sets the error classifier. It is chained in front of DefaultClassifier.
func WithClassifier(c Classifier) Option {
	return func(e *Executor) {
		if c != nil {
			e.classifier = Chain(c, DefaultClassifier)
		}
	}
}

// WithBackoff sets the options used to build the Backoff of every call.
func WithBackoff(opts ...BackoffOption) Option {
	return func(e *Executor) {
		e.backoffOpts = append(e.backoffOpts, opts...)
	}
}

// WithLogger sets the logger used for retry and failure records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOnRetry registers a callback invoked before each retry.
func WithOnRetry(fn func(name string, attempt int, fault Fault, err error)) Option {
	return func(e *Executor) {
		e.onRetry = fn
	}
}

// New creates an Executor with 5 attempts, the default backoff and DefaultClassifier.
func New(opts ...Option) *Executor {
	e := &Executor{
		maxAttempts: DefaultMaxAttempts,
		classifier:  DefaultClassifier,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// With returns a copy of the executor with extra options applied.
// The receiver is not modified.
func (e *Executor) With(opts ...Option) *Executor {
	clone := *e
	clone.backoffOpts = append([]BackoffOption(nil), e.backoffOpts...)
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// MaxAttempts returns the configured attempt budget.
func (e *Executor) MaxAttempts() int {
	return e.maxAttempts
}

// Classify exposes the executor's classifier.
func (e *Executor) Classify(err error) Fault {
	return e.classifier.Classify(err)
}

// Do invokes op until it succeeds, fails with a non-retryable fault, the
// attempt budget is spent, or ctx is done.
//
// Non-retryable errors are returned unchanged after a single invocation.
// When the budget is spent the last error is returned joined with ErrRetriesExhausted.
func (e *Executor) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	if op == nil {
		return ErrNilOperation
	}

	var (
		attempt   int
		lastFault Fault
	)

	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastFault = e.classifier.Classify(err)
		if !lastFault.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		e.logger.WarnContext(ctx, "retrying operation",
			slog.String("operation", name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", e.maxAttempts),
			slog.String("fault", lastFault.String()),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		if e.onRetry != nil {
			e.onRetry(name, attempt, lastFault, err)
		}
	}

	// WithMaxRetries treats 0 as unlimited, so a single-attempt budget needs StopBackOff.
	var inner backoff.BackOff = &backoff.StopBackOff{}
	if e.maxAttempts > 1 {
		inner = backoff.WithMaxRetries(NewBackoff(e.backoffOpts...), uint64(e.maxAttempts-1))
	}
	policy := backoff.WithContext(inner, ctx)

	err := backoff.RetryNotify(operation, policy, notify)
	switch {
	case err == nil:
		return nil
	case !lastFault.Retryable():
		return err
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		if ctx.Err() != nil {
			return err
		}
	}

	e.logger.ErrorContext(ctx, "operation failed after retries",
		slog.String("operation", name),
		slog.Int("attempts", attempt),
		slog.String("fault", lastFault.String()),
		slog.String("error", err.Error()),
	)

	return fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, name, attempt, err)
}
