package middleware

import (
	"regexp"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/core/handler"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDContextKey struct{}

// Incoming ids are reused only when they look like a token, not free text.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._\-]{8,128}$`)

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	Skip func(ctx handler.Context) bool
	// Generator creates new ids (default: UUID v4).
	Generator func() string
	// TrustIncoming reuses a well-formed X-Request-ID sent by a proxy.
	TrustIncoming bool
}

// RequestID assigns a fresh UUID to every request.
func RequestID[C handler.Context]() handler.Middleware[C] {
	return RequestIDWithConfig[C](RequestIDConfig{})
}

// RequestIDWithConfig stores the id in the context and sets the response
// header before the handler runs, so error responses carry it too.
func RequestIDWithConfig[C handler.Context](cfg RequestIDConfig) handler.Middleware[C] {
	if cfg.Generator == nil {
		cfg.Generator = func() string { return uuid.NewString() }
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			var id string
			if cfg.TrustIncoming {
				if in := ctx.Request().Header.Get(RequestIDHeader); validRequestID.MatchString(in) {
					id = in
				}
			}
			if id == "" {
				id = cfg.Generator()
			}

			ctx.SetValue(requestIDContextKey{}, id)
			ctx.ResponseWriter().Header().Set(RequestIDHeader, id)

			return next(ctx)
		}
	}
}

// GetRequestID returns the id assigned by RequestID.
func GetRequestID(ctx handler.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	return id, ok
}

// RequestIDContextKey is the context key under which the id is stored, for
// logger.WithContextValue.
func RequestIDContextKey() any { return requestIDContextKey{} }
