package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Inside a transaction a failed statement aborts the tx, so the *WithRetry
// helpers run exactly once when ctx carries one; InTx is the unit to retry.

// ExecWithRetry is Exec with transient failures retried.
func (db *DB) ExecWithRetry(ctx context.Context, name, sql string, args ...any) (pgconn.CommandTag, error) {
	if _, ok := TxFromContext(ctx); ok {
		return db.Exec(ctx, sql, args...)
	}

	var tag pgconn.CommandTag
	err := db.retry.Do(ctx, name, func(ctx context.Context) error {
		var err error
		tag, err = db.Exec(ctx, sql, args...)
		return err
	})
	return tag, err
}

// QueryWithRetry collects all rows with scan, retrying transient failures.
// A retried attempt starts from scratch, so partial results never leak.
func QueryWithRetry[T any](ctx context.Context, db *DB, name string, scan pgx.RowToFunc[T], sql string, args ...any) ([]T, error) {
	run := func(ctx context.Context) ([]T, error) {
		rows, err := db.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, scan)
	}

	if _, ok := TxFromContext(ctx); ok {
		return run(ctx)
	}

	var out []T
	err := db.retry.Do(ctx, name, func(ctx context.Context) error {
		var err error
		out, err = run(ctx)
		return err
	})
	return out, err
}

// QueryOneWithRetry returns exactly one row. No rows yields pgx.ErrNoRows,
// which is never retried.
func QueryOneWithRetry[T any](ctx context.Context, db *DB, name string, scan pgx.RowToFunc[T], sql string, args ...any) (T, error) {
	run := func(ctx context.Context) (T, error) {
		rows, err := db.Query(ctx, sql, args...)
		if err != nil {
			var zero T
			return zero, err
		}
		return pgx.CollectExactlyOneRow(rows, scan)
	}

	if _, ok := TxFromContext(ctx); ok {
		return run(ctx)
	}

	var out T
	err := db.retry.Do(ctx, name, func(ctx context.Context) error {
		var err error
		out, err = run(ctx)
		return err
	})
	return out, err
}

// AcquireWithRetry checks out a client, retrying while the pool cannot
// connect. The caller must Release it.
func (db *DB) AcquireWithRetry(ctx context.Context, name string) (*pgxpool.Conn, error) {
	var conn *pgxpool.Conn
	err := db.retry.Do(ctx, name, func(ctx context.Context) error {
		var err error
		conn, err = db.acquire(ctx)
		return err
	})
	return conn, err
}
