package pg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/core/logger"
)

type txKey struct{}

// WithTx makes Query, QueryRow and Exec on ctx run inside tx. A nil tx
// leaves ctx as is.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction bound by WithTx, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// InTx runs fn inside a transaction on a client checked out with retry. The
// transaction travels in the context, so Query/Exec calls made by fn join it.
// A nested InTx reuses the outer transaction.
//
// fn's error rolls the transaction back and is returned unchanged. A panic
// rolls back and re-panics.
func (db *DB) InTx(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	if fn == nil {
		return ErrNilOperation
	}
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	conn, err := db.AcquireWithRetry(ctx, name)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !IsTxClosedError(rbErr) {
				db.log.WarnContext(ctx, "rollback failed", slog.String("tx", name), logger.Error(rbErr))
			}
		}
	}()

	if err = fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}
