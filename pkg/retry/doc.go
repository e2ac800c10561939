// Package retry runs operations under an exponential backoff policy with
// bounded additive jitter.
//
// Every error an operation returns is mapped onto a closed set of fault
// categories (see Fault). Only connectivity faults and unclassified faults
// are retried; constraint, schema, syntax, data, not-found and cancellation
// faults are returned to the caller after a single invocation.
//
// Basic usage:
//
//	exec := retry.New(
//		retry.WithMaxAttempts(5),
//		retry.WithClassifier(pg.Classifier),
//		retry.WithLogger(log),
//	)
//
//	err := exec.Do(ctx, "products.list", func(ctx context.Context) error {
//		return queryProducts(ctx)
//	})
//	if errors.Is(err, retry.ErrRetriesExhausted) {
//		// the store stayed unreachable
//	}
//
// The delay before retry n (0-based) is min(initial * 2^n, max) plus a random
// jitter in [0, 30%] of that value. The loop itself is driven by
// github.com/cenkalti/backoff/v4, with Backoff implementing backoff.BackOff.
package retry
