//go:build integration

package pg_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/dmitrymomot/storefront/integration/database/pg"
	"github.com/dmitrymomot/storefront/migrations"
	"github.com/dmitrymomot/storefront/pkg/retry"
)

func startPostgres(t *testing.T) *pg.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := pg.Open(ctx, pg.DefaultConfig(dsn), pg.WithRetryOptions(
		retry.WithBackoff(retry.WithInitialDelay(10*time.Millisecond), retry.WithMaxDelay(50*time.Millisecond)),
	))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Probe(ctx))
	require.NoError(t, pg.Migrate(ctx, db, migrations.FS, nil))
	return db
}

func TestDB_Integration(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	assert.True(t, db.Ready())
	require.NoError(t, pg.Healthcheck(db)(ctx))

	insert := `INSERT INTO products (id, sku, name, slug) VALUES ($1, $2, $3, $4)`

	t.Run("exec and query with retry", func(t *testing.T) {
		_, err := db.ExecWithRetry(ctx, "insert product", insert, uuid.New(), "M12-A4", "M12 A-coded 4 pin", "m12-a4")
		require.NoError(t, err)

		names, err := pg.QueryWithRetry(ctx, db, "list names", pgx.RowTo[string], `SELECT name FROM products WHERE sku = $1`, "M12-A4")
		require.NoError(t, err)
		assert.Equal(t, []string{"M12 A-coded 4 pin"}, names)
	})

	t.Run("constraint errors are not retried", func(t *testing.T) {
		var attempts atomic.Int32
		err := db.Retrier().Do(ctx, "dup", func(ctx context.Context) error {
			attempts.Add(1)
			_, err := db.Exec(ctx, insert, uuid.New(), "M12-A4", "dup", "dup")
			return err
		})
		require.Error(t, err)
		assert.True(t, pg.IsDuplicateKeyError(err))
		assert.Equal(t, int32(1), attempts.Load())
		assert.Equal(t, retry.FaultConstraint, pg.Classify(err))
	})

	t.Run("schema errors are classified", func(t *testing.T) {
		_, err := db.Exec(ctx, `SELECT nope FROM products`)
		assert.Equal(t, retry.FaultSchema, pg.Classify(err))

		_, err = db.Exec(ctx, `SELEC 1`)
		assert.Equal(t, retry.FaultSyntax, pg.Classify(err))
	})

	t.Run("query one reports not found", func(t *testing.T) {
		_, err := pg.QueryOneWithRetry(ctx, db, "get", pgx.RowTo[string], `SELECT name FROM products WHERE sku = $1`, "missing")
		assert.True(t, pg.IsNotFoundError(err))
	})

	t.Run("transaction rollback and commit", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.InTx(ctx, "rollback", func(ctx context.Context) error {
			_, err := db.Exec(ctx, insert, uuid.New(), "TX-1", "tx", "tx-1")
			require.NoError(t, err)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var n int
		require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM products WHERE sku = 'TX-1'`).Scan(&n))
		assert.Zero(t, n)

		require.NoError(t, db.InTx(ctx, "commit", func(ctx context.Context) error {
			_, err := db.Exec(ctx, insert, uuid.New(), "TX-2", "tx", "tx-2")
			return err
		}))
		require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM products WHERE sku = 'TX-2'`).Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("pool never exceeds max conns", func(t *testing.T) {
		done := make(chan error, 40)
		for range 40 {
			go func() {
				_, err := db.Exec(ctx, `SELECT pg_sleep(0.05)`)
				done <- err
			}()
		}
		for range 40 {
			<-done
		}
		assert.LessOrEqual(t, db.Pool().Stat().MaxConns(), int32(20))
		assert.LessOrEqual(t, db.Pool().Stat().TotalConns(), int32(20))
	})
}
