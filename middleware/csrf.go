package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/pkg/csrf"
)

const (
	CSRFHeader           = csrf.HeaderName
	IdempotencyKeyHeader = "Idempotency-Key"
)

type csrfTokenContextKey struct{}

// CSRFTokens issues and checks tokens; *csrf.Manager implements it.
type CSRFTokens interface {
	Issue(ctx context.Context, sessionKey string) (string, error)
	Validate(ctx context.Context, sessionKey, token string) error
	Invalidate(ctx context.Context, sessionKey string) error
}

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	Skip   func(ctx handler.Context) bool
	Tokens CSRFTokens
	// KeyExtractor defaults to SessionKey.
	KeyExtractor func(ctx handler.Context) string
	OnReject     func(reason string)
	Logger       *slog.Logger
}

// CSRF mints or refreshes the session token on GET, HEAD and OPTIONS and
// returns it in X-CSRF-Token. Every other method must echo a live token in
// that header or gets 403.
func CSRF[C handler.Context](cfg CSRFConfig) handler.Middleware[C] {
	if cfg.Tokens == nil {
		panic("csrf middleware: token manager is required")
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

			key := cfg.KeyExtractor(ctx)

			if isSafeMethod(ctx.Request().Method) {
				token, err := cfg.Tokens.Issue(ctx, key)
				if err != nil {
					cfg.Logger.WarnContext(ctx, "csrf token not issued", slog.String("error", err.Error()))
					return next(ctx)
				}
				ctx.SetValue(csrfTokenContextKey{}, token)
				ctx.ResponseWriter().Header().Set(CSRFHeader, token)
				return next(ctx)
			}

			err := cfg.Tokens.Validate(ctx, key, ctx.Request().Header.Get(CSRFHeader))
			switch {
			case err == nil:
				return next(ctx)
			case errors.Is(err, csrf.ErrMissingToken), errors.Is(err, csrf.ErrInvalidToken), errors.Is(err, csrf.ErrMissingKey):
				if cfg.OnReject != nil {
					cfg.OnReject(rejectReason(err))
				}
				return response.Error(response.ErrForbidden.WithMessage("Invalid CSRF token").WithError(err))
			default:
				return response.Error(response.ErrServiceUnavailable.WithError(err))
			}
		}
	}
}

// GetCSRFToken returns the token minted for this request, if any.
func GetCSRFToken(ctx handler.Context) (string, bool) {
	t, ok := ctx.Value(csrfTokenContextKey{}).(string)
	return t, ok
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func rejectReason(err error) string {
	if errors.Is(err, csrf.ErrMissingToken) {
		return "missing"
	}
	return "invalid"
}
