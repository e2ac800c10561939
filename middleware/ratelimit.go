package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	Skip    func(ctx handler.Context) bool
	Limiter ratelimiter.RateLimiter
	// Class names the route class in logs and metrics (api, auth, submit).
	Class string
	// KeyExtractor defaults to SessionKey.
	KeyExtractor func(ctx handler.Context) string
	// OnReject is called for every rejected request.
	OnReject func(class string)
	// FailOpen lets requests through when the store errors instead of answering 503.
	FailOpen bool
	Logger   *slog.Logger
}

// RateLimit counts requests per key in fixed windows and answers 429 with
// Retry-After once the window's limit is spent. X-RateLimit-* headers are
// set on every response.
func RateLimit[C handler.Context](cfg RateLimitConfig) handler.Middleware[C] {
	if cfg.Limiter == nil {
		panic("ratelimit middleware: limiter is required")
	}
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = SessionKey
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			result, err := cfg.Limiter.Allow(ctx, cfg.KeyExtractor(ctx))
			if err != nil {
				cfg.Logger.ErrorContext(ctx, "rate limiter unavailable",
					slog.String("class", cfg.Class), slog.String("error", err.Error()))
				if cfg.FailOpen {
					return next(ctx)
				}
				return response.Error(response.ErrServiceUnavailable.WithError(err))
			}

			h := ctx.ResponseWriter().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				retryAfter := retryAfterSeconds(result.RetryAfter())
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				if cfg.OnReject != nil {
					cfg.OnReject(cfg.Class)
				}
				return response.Error(response.ErrTooManyRequests.
					WithMessage("Too many requests, please try again later").
					WithDetails(map[string]int{"retry_after": retryAfter}))
			}

			return next(ctx)
		}
	}
}

// retryAfterSeconds rounds up so clients never retry before the window resets.
func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	return max(1, s)
}
