package pg

import (
	"context"
	"errors"

	"github.com/dmitrymomot/storefront/core/logger"
)

// Probe checks connectivity at startup using the probe retry budget (3
// attempts by default). It only logs the outcome; callers run it in a
// goroutine and keep serving either way, in degraded mode on failure.
func (db *DB) Probe(ctx context.Context) error {
	err := db.probe.Do(ctx, "startup probe", db.Ping)
	if err != nil {
		db.ready.Store(false)
		if errors.Is(err, context.Canceled) {
			return err
		}
		db.log.ErrorContext(ctx, "database unavailable, running in degraded mode",
			logger.Component("pg"), logger.Error(err))
		return err
	}

	db.ready.Store(true)
	db.log.InfoContext(ctx, "database connection ready", logger.Component("pg"))
	return nil
}

// Healthcheck returns a readiness check that pings the database.
func Healthcheck(db *DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			db.ready.Store(false)
			return errors.Join(ErrHealthcheckFailed, err)
		}
		db.ready.Store(true)
		return nil
	}
}
