package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/storefront/integration/database/pg"
	"github.com/dmitrymomot/storefront/pkg/retry"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	pgErr := func(code string) error { return fmt.Errorf("query: %w", &pgconn.PgError{Code: code}) }

	cases := map[string]struct {
		err  error
		want retry.Fault
	}{
		"nil":                {nil, retry.FaultNone},
		"connect timeout":    {fmt.Errorf("%w: ctx", pg.ErrConnectTimeout), retry.FaultConnectivity},
		"admin shutdown":     {pgErr("57P01"), retry.FaultConnectivity},
		"too many conns":     {pgErr("53300"), retry.FaultConnectivity},
		"connection failure": {pgErr("08006"), retry.FaultConnectivity},
		"serialization":      {pgErr("40001"), retry.FaultConnectivity},
		"deadlock":           {pgErr("40P01"), retry.FaultConnectivity},
		"unique violation":   {pgErr("23505"), retry.FaultConstraint},
		"fk violation":       {pgErr("23503"), retry.FaultConstraint},
		"undefined table":    {pgErr("42P01"), retry.FaultSchema},
		"undefined column":   {pgErr("42703"), retry.FaultSchema},
		"syntax":             {pgErr("42601"), retry.FaultSyntax},
		"bad input":          {pgErr("22P02"), retry.FaultData},
		"no rows":            {fmt.Errorf("get: %w", pgx.ErrNoRows), retry.FaultNotFound},
		"canceled":           {context.Canceled, retry.FaultCanceled},
		"refused by message": {errors.New("dial tcp 10.0.0.1:5432: connection refused"), retry.FaultConnectivity},
		"unknown":            {errors.New("something odd"), retry.FaultUnknown},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, pg.Classifier.Classify(tc.err))
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "products_slug_key"}
	assert.True(t, pg.IsDuplicateKeyError(fmt.Errorf("wrap: %w", dup)))
	assert.Equal(t, "products_slug_key", pg.ConstraintName(dup))
	assert.False(t, pg.IsForeignKeyViolationError(dup))
	assert.True(t, pg.IsForeignKeyViolationError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
	assert.True(t, pg.IsTxClosedError(pgx.ErrTxClosed))
}

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	_, err := pg.Open(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Open(context.Background(), pg.Config{URL: "postgres://%zz"})
	assert.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

func TestOpen_DoesNotBlockOnUnreachableServer(t *testing.T) {
	t.Parallel()

	cfg := pg.DefaultConfig("postgres://u:p@127.0.0.1:1/db?sslmode=disable")
	cfg.MinConns = 0
	cfg.ConnectTimeout = 200 * time.Millisecond

	db, err := pg.Open(context.Background(), cfg, pg.WithRetryOptions(
		retry.WithBackoff(retry.WithInitialDelay(time.Millisecond), retry.WithMaxDelay(2*time.Millisecond)),
	))
	assert.NoError(t, err)
	defer db.Close()

	err = db.Probe(context.Background())
	assert.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrRetriesExhausted)
	assert.False(t, db.Ready())

	_, err = db.Exec(context.Background(), "SELECT 1")
	assert.Equal(t, retry.FaultConnectivity, pg.Classifier.Classify(err))
}
