package pg

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/pkg/retry"
)

// Querier is the execution surface shared by *DB and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var (
	_ Querier = (*DB)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// DB wraps a pgx pool. Every checkout is bounded by the connect timeout, and
// the *WithRetry helpers rerun transient failures through a retry.Executor.
type DB struct {
	pool  *pgxpool.Pool
	cfg   Config
	log   *slog.Logger
	retry *retry.Executor
	probe *retry.Executor
	ready atomic.Bool

	retryOpts []retry.Option
}

// Option configures Open.
type Option func(*DB)

// WithLogger sets the logger used for retries and the startup probe.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.log = l
		}
	}
}

// WithRetryOptions appends options to the query retry executor and the probe.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(db *DB) {
		db.retryOpts = append(db.retryOpts, opts...)
	}
}

// Open builds the pool. It never waits for the server: connectivity problems
// surface on first use or through Probe.
func Open(ctx context.Context, cfg Config, opts ...Option) (*DB, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyConnectionString
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 && cfg.MinConns <= poolCfg.MaxConns {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.InsecureTLS && !isLocalHost(poolCfg.ConnConfig.Host) {
		poolCfg.ConnConfig.TLSConfig = &tls.Config{
			ServerName:         poolCfg.ConnConfig.Host,
			InsecureSkipVerify: true, //nolint:gosec // opt-in via DATABASE_INSECURE_TLS
		}
	}

	db := &DB{cfg: cfg, log: logger.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(db)
		}
	}

	base := []retry.Option{
		retry.WithClassifier(Classifier),
		retry.WithLogger(db.log),
		retry.WithBackoff(retry.WithInitialDelay(cfg.RetryInitialDelay), retry.WithMaxDelay(cfg.RetryMaxDelay)),
	}
	db.retry = retry.New(append(base, retry.WithMaxAttempts(cfg.RetryAttempts))...).With(db.retryOpts...)
	db.probe = retry.New(append(base, retry.WithMaxAttempts(cfg.ProbeAttempts))...).With(db.retryOpts...)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDBConnection, err)
	}
	db.pool = pool
	return db, nil
}

func isLocalHost(host string) bool {
	if host == "" || host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Pool exposes the underlying pool.
func (db *DB) Pool() *pgxpool.Pool { return db.pool }

// Retrier returns the executor used by the *WithRetry helpers.
func (db *DB) Retrier() *retry.Executor { return db.retry }

// Ready reports whether the last probe or healthcheck succeeded.
func (db *DB) Ready() bool { return db.ready.Load() }

// Close closes the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// acquire checks out a connection, giving up after the connect timeout.
func (db *DB) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	actx, cancel := ctx, context.CancelFunc(func() {})
	if db.cfg.ConnectTimeout > 0 {
		actx, cancel = context.WithTimeout(ctx, db.cfg.ConnectTimeout)
	}
	defer cancel()

	conn, err := db.pool.Acquire(actx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrConnectTimeout, db.cfg.ConnectTimeout, err)
		}
		return nil, err
	}
	return conn, nil
}

// Query runs sql on the transaction in ctx, or on a checked-out connection
// that is released when the rows are closed.
func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.Query(ctx, sql, args...)
	}

	conn, err := db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		conn.Release()
		return nil, err
	}
	return &releasingRows{Rows: rows, conn: conn}, nil
}

// QueryRow defers the checkout until Scan.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.QueryRow(ctx, sql, args...)
	}
	return &lazyRow{db: db, ctx: ctx, sql: sql, args: args}
}

// Exec runs a statement that returns no rows.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.Exec(ctx, sql, args...)
	}

	conn, err := db.acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()
	return conn.Exec(ctx, sql, args...)
}

// Ping checks out a connection and pings the server.
func (db *DB) Ping(ctx context.Context) error {
	conn, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Ping(ctx)
}

type releasingRows struct {
	pgx.Rows
	conn   *pgxpool.Conn
	closed bool
}

func (r *releasingRows) Close() {
	r.Rows.Close()
	if !r.closed {
		r.closed = true
		r.conn.Release()
	}
}

type lazyRow struct {
	db   *DB
	ctx  context.Context
	sql  string
	args []any
}

func (r *lazyRow) Scan(dest ...any) error {
	conn, err := r.db.acquire(r.ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.QueryRow(r.ctx, r.sql, r.args...).Scan(dest...)
}
