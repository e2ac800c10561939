package middleware

import (
	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/pkg/clientip"
)

type clientIPContextKey struct{}

// ClientIPConfig configures the client IP middleware.
type ClientIPConfig struct {
	Skip func(ctx handler.Context) bool
}

// ClientIP resolves the client address once per request (first
// X-Forwarded-For entry, IPv4-mapped prefix stripped) and stores it.
func ClientIP[C handler.Context]() handler.Middleware[C] {
	return ClientIPWithConfig[C](ClientIPConfig{})
}

func ClientIPWithConfig[C handler.Context](cfg ClientIPConfig) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}
			ctx.SetValue(clientIPContextKey{}, clientip.GetIP(ctx.Request()))
			return next(ctx)
		}
	}
}

// GetClientIP returns the address stored by ClientIP, falling back to
// resolving it from the request.
func GetClientIP(ctx handler.Context) string {
	if ip, ok := ctx.Value(clientIPContextKey{}).(string); ok {
		return ip
	}
	return clientip.GetIP(ctx.Request())
}
