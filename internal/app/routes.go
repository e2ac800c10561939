package app

import (
	"time"

	"github.com/dmitrymomot/storefront/core/cookie"
	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/health"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/integration/database/pg"
	"github.com/dmitrymomot/storefront/internal/api"
	"github.com/dmitrymomot/storefront/internal/auth"
	"github.com/dmitrymomot/storefront/middleware"
	"github.com/dmitrymomot/storefront/pkg/csrf"
	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
)

// Route classes of the rate limiter, also used as counter key prefixes.
const (
	ClassAPI    = "api"
	ClassAuth   = "auth"
	ClassSubmit = "submit"
)

type mw = handler.Middleware[*router.Context]

// routes builds the router. Every request passes request id, logging,
// metrics, timeout, security headers, CORS, body limit, client ip and
// identity before reaching the per-route guards of the api package.
func (a *App) routes(downloads api.Downloads) (router.Router[*router.Context], error) {
	cfg := a.cfg

	r := router.New[*router.Context](
		router.WithErrorHandler(response.NewJSONErrorHandler[*router.Context](response.ErrorHandlerConfig{
			Production: cfg.Production(),
			Logger:     a.log,
		})),
		router.WithMiddleware(
			middleware.RequestID[*router.Context](),
			middleware.LoggingWithLogger[*router.Context](a.log),
			middleware.Metrics[*router.Context](middleware.MetricsConfig{Observer: a.metrics}),
			middleware.TimeoutWithConfig[*router.Context](middleware.TimeoutConfig{Timeout: cfg.RequestTimeout, Logger: a.log}),
			middleware.SecurityHeadersWithConfig[*router.Context](securityHeaders(cfg)),
			middleware.CORSWithConfig[*router.Context](middleware.CORSConfig{
				AllowOrigins:     cfg.FrontendURL,
				AllowCredentials: len(cfg.FrontendURL) > 0,
				ExposeHeaders: []string{
					middleware.RequestIDHeader, middleware.CSRFHeader, "Retry-After",
					"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset",
				},
				MaxAge: int((12 * time.Hour).Seconds()),
			}),
			middleware.BodyLimit[*router.Context](),
			middleware.ClientIP[*router.Context](),
			middleware.Identity[*router.Context](middleware.IdentityConfig{
				Parse:   a.sessions.Parse,
				Cookies: []string{auth.AdminCookie, auth.CustomerCookie},
				Logger:  a.log,
			}),
		),
	)

	r.Get("/health/live", health.Liveness[*router.Context])
	r.Get("/health/ready", health.Readiness[*router.Context](a.log,
		health.Check{Name: "database", Fn: pg.Healthcheck(a.db)},
		a.tokens.check,
	))
	r.HandleHTTP("/metrics", a.metrics.Handler())

	guards, err := a.guards()
	if err != nil {
		return nil, err
	}
	tokens := csrf.NewManager(a.tokens.csrf)
	guards.CSRF = middleware.CSRF[*router.Context](middleware.CSRFConfig{
		Tokens:   tokens,
		OnReject: a.metrics.CSRFRejected,
		Logger:   a.log,
	})

	api.New(api.Deps{
		Sessions:  a.sessions,
		Cookies:   cookie.NewFromConfig(cfg.Cookie, cookie.WithSecure(cfg.Cookie.Secure || cfg.Production())),
		CSRF:      tokens,
		Downloads: downloads,
		Notifier:  a.notifier,
		Recorder:  a.metrics,
		Logger:    a.log,
	}.Repos(a.repos)).Register(r, guards)

	return r, nil
}

// guards builds one fixed-window limiter per route class over the shared
// counter store.
func (a *App) guards() (api.Guards, error) {
	rl := a.cfg.RateLimit
	limit := func(class string, n int, window time.Duration) (mw, error) {
		l, err := ratelimiter.NewFixedWindow(a.tokens.limits, ratelimiter.Config{Limit: n, Window: window, Prefix: class})
		if err != nil {
			return nil, err
		}
		return middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
			Limiter:  l,
			Class:    class,
			OnReject: a.metrics.RateLimitRejected,
			FailOpen: rl.FailOpen,
			Logger:   a.log,
		}), nil
	}

	var (
		g   api.Guards
		err error
	)
	if g.APILimit, err = limit(ClassAPI, rl.APIMax, rl.APIWindow); err != nil {
		return g, err
	}
	if g.AuthLimit, err = limit(ClassAuth, rl.AuthMax, rl.AuthWindow); err != nil {
		return g, err
	}
	if g.SubmitLimit, err = limit(ClassSubmit, rl.SubmitMax, rl.SubmitWindow); err != nil {
		return g, err
	}
	g.Sanitize = middleware.Sanitize[*router.Context](middleware.SanitizeConfig{})
	return g, nil
}

func securityHeaders(cfg Config) middleware.SecurityHeadersConfig {
	h := middleware.APISecurity
	h.Development = !cfg.Production()
	return h
}
