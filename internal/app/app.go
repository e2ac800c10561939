// Package app assembles the storefront process: configuration, the Postgres
// pool, token stores, notification transport, the HTTP router and the
// server, and runs them until the context ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/storefront/core/email"
	"github.com/dmitrymomot/storefront/core/health"
	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/core/server"
	"github.com/dmitrymomot/storefront/integration/database/pg"
	"github.com/dmitrymomot/storefront/integration/database/redis"
	"github.com/dmitrymomot/storefront/integration/email/postmark"
	"github.com/dmitrymomot/storefront/integration/email/smtp"
	"github.com/dmitrymomot/storefront/integration/storage/s3"
	"github.com/dmitrymomot/storefront/internal/api"
	"github.com/dmitrymomot/storefront/internal/auth"
	"github.com/dmitrymomot/storefront/internal/metrics"
	"github.com/dmitrymomot/storefront/internal/notify"
	"github.com/dmitrymomot/storefront/internal/store"
	"github.com/dmitrymomot/storefront/middleware"
	"github.com/dmitrymomot/storefront/migrations"
	"github.com/dmitrymomot/storefront/pkg/retry"
	"github.com/dmitrymomot/storefront/pkg/tokenstore"
)

// reprobeInterval is how often a degraded process retries the database.
const reprobeInterval = 30 * time.Second

// App is one storefront process.
type App struct {
	cfg      Config
	log      *slog.Logger
	metrics  *metrics.Metrics
	db       *pg.DB
	repos    *store.Repos
	redis    *goredis.Client
	tokens   tokenStores
	sessions *auth.Service
	notifier *notify.Notifier
	router   router.Router[*router.Context]
	server   *server.Server
}

// tokenStores keeps CSRF tokens and rate-limit counters apart so a flood of
// counters never evicts tokens.
type tokenStores struct {
	csrf   tokenstore.Store
	limits tokenstore.Store
	// memory lists the in-process stores whose sweeps Run drives.
	memory []*tokenstore.MemoryStore
	check  health.Check
}

type Option func(*App) error

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		a.log = l
		return nil
	}
}

// WithMetrics replaces the collector set.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		a.metrics = m
		return nil
	}
}

// NewLogger builds the process logger for cfg.
func NewLogger(cfg Config) *slog.Logger {
	var opts []logger.Option
	switch cfg.Environment() {
	case EnvProduction:
		opts = append(opts, logger.WithProduction(cfg.AppName))
	case EnvDevelopment:
		opts = append(opts, logger.WithDevelopment(cfg.AppName))
	default:
		opts = append(opts, logger.WithAttr(slog.String("service", cfg.AppName), slog.String("env", cfg.Environment())))
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	if cfg.JSONLogs() {
		opts = append(opts, logger.WithJSONFormatter())
	} else {
		opts = append(opts, logger.WithTextFormatter())
	}
	opts = append(opts, logger.WithContextValue("request_id", middleware.RequestIDContextKey()))
	return logger.New(opts...)
}

// New validates cfg and builds every component. Nothing here waits for the
// database; Run probes it in the background.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.log == nil {
		a.log = NewLogger(cfg)
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}

	secret, err := auth.ResolveSecret(cfg.JWTSecret, cfg.Production(), a.log)
	if err != nil {
		return nil, err
	}
	if a.sessions, err = auth.NewService(secret); err != nil {
		return nil, err
	}

	a.db, err = pg.Open(ctx, cfg.DB,
		pg.WithLogger(a.log),
		pg.WithRetryOptions(retry.WithOnRetry(a.metrics.OnRetry)),
	)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	a.repos = store.New(a.db)

	if err := a.openTokenStores(ctx); err != nil {
		a.close()
		return nil, err
	}

	sender, err := a.emailSender()
	if err != nil {
		a.close()
		return nil, err
	}
	a.notifier = notify.New(sender, cfg.NotifyEmail,
		notify.WithLogger(a.log),
		notify.WithRecorder(a.metrics),
	)

	var downloads api.Downloads
	if cfg.S3.Enabled() {
		p, err := s3.New(ctx, cfg.S3)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("configure resource downloads: %w", err)
		}
		downloads = p
	}

	a.router, err = a.routes(downloads)
	if err != nil {
		a.close()
		return nil, err
	}

	a.server, err = server.NewFromConfig(cfg.Server,
		server.WithLogger(a.log),
		server.WithShutdownHook(a.notifier.Wait),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// Handler exposes the router, mostly for tests.
func (a *App) Handler() http.Handler { return a.router }

// Run serves until ctx ends or a component fails, then releases the pool
// and the token stores.
func (a *App) Run(ctx context.Context) error {
	a.log.InfoContext(ctx, "starting storefront",
		slog.String("env", a.cfg.Environment()),
		slog.String("addr", a.cfg.Server.Addr()),
		slog.String("token_store", a.cfg.TokenStore),
		slog.Bool("notifications", a.notifier.Enabled()),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(a.server.Run(ctx, a.router))
	for _, ms := range a.tokens.memory {
		g.Go(ms.Run(ctx))
	}
	g.Go(func() error { return a.prepareDatabase(ctx) })
	g.Go(func() error { return a.purgeIdempotency(ctx) })

	err := g.Wait()
	a.close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// prepareDatabase probes the pool, then migrates and bootstraps the admin
// account. While the database is down the API answers 503 for data routes
// and the probe is repeated.
func (a *App) prepareDatabase(ctx context.Context) error {
	for a.db.Probe(ctx) != nil {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reprobeInterval):
		}
	}

	if err := pg.Migrate(ctx, a.db, migrations.FS, a.log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	if a.cfg.AdminUsername != "" {
		if _, err := auth.EnsureAdmin(ctx, a.repos.Users, a.cfg.AdminUsername, a.cfg.AdminPassword, a.log); err != nil {
			a.log.ErrorContext(ctx, "admin bootstrap failed", logger.Error(err))
		}
	}
	return nil
}

// purgeIdempotency drops stored RFQ responses older than IdempotencyTTL.
func (a *App) purgeIdempotency(ctx context.Context) error {
	if a.cfg.IdempotencySweep <= 0 || a.cfg.IdempotencyTTL <= 0 {
		return nil
	}
	ticker := time.NewTicker(a.cfg.IdempotencySweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !a.db.Ready() {
				continue
			}
			n, err := a.repos.Idempotency.Purge(ctx, a.cfg.IdempotencyTTL)
			if err != nil {
				a.log.WarnContext(ctx, "idempotency purge failed", logger.Error(err))
				continue
			}
			if n > 0 {
				a.log.DebugContext(ctx, "idempotency records purged", slog.Int64("count", n))
			}
		}
	}
}

func (a *App) openTokenStores(ctx context.Context) error {
	if a.cfg.TokenStore == TokenStoreRedis {
		client, err := redis.Connect(ctx, a.cfg.Redis, a.log)
		if err != nil {
			return fmt.Errorf("connect token store: %w", err)
		}
		a.redis = client

		csrfStore, err := tokenstore.NewRedisStore(client, tokenstore.WithPrefix(a.cfg.AppName+":csrf:"))
		if err != nil {
			return err
		}
		limitStore, err := tokenstore.NewRedisStore(client, tokenstore.WithPrefix(a.cfg.AppName+":rl:"))
		if err != nil {
			return err
		}
		a.tokens = tokenStores{
			csrf:   csrfStore,
			limits: limitStore,
			check:  health.Check{Name: "token_store", Fn: redis.Healthcheck(client)},
		}
		return nil
	}

	csrfStore := tokenstore.NewMemoryStore(
		tokenstore.WithCleanupInterval(a.cfg.CSRFSweepInterval),
		tokenstore.WithLogger(a.log.With(logger.Component("csrf_store"))),
	)
	limitStore := tokenstore.NewMemoryStore(
		tokenstore.WithCleanupInterval(time.Minute),
		tokenstore.WithLogger(a.log.With(logger.Component("rate_limit_store"))),
	)
	a.tokens = tokenStores{
		csrf:   csrfStore,
		limits: limitStore,
		memory: []*tokenstore.MemoryStore{csrfStore, limitStore},
		check:  health.Check{Name: "token_store", Fn: csrfStore.Healthcheck},
	}
	return nil
}

// emailSender picks Postmark, then SMTP, then the file sender outside
// production. Without any, notifications are off.
func (a *App) emailSender() (email.EmailSender, error) {
	switch {
	case a.cfg.NotifyEmail == "":
		return nil, nil
	case !email.IsValidAddress(a.cfg.NotifyEmail):
		return nil, fmt.Errorf("%w: NOTIFY_EMAIL %q is not a valid address", ErrInvalidConfig, a.cfg.NotifyEmail)
	case a.cfg.Postmark.Enabled():
		c, err := postmark.New(a.cfg.Postmark)
		if err != nil {
			return nil, fmt.Errorf("configure postmark: %w", err)
		}
		return c, nil
	case a.cfg.SMTP.Enabled():
		c, err := smtp.New(a.cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("configure smtp: %w", err)
		}
		return c, nil
	case !a.cfg.Production():
		a.log.Info("notification emails are written to disk", slog.String("dir", a.cfg.EmailDir))
		return email.NewDevSender(a.cfg.EmailDir), nil
	}
	a.log.Warn("NOTIFY_EMAIL is set but no email transport is configured, notifications are off")
	return nil, nil
}

func (a *App) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("closing redis client", logger.Error(err))
		}
	}
}
