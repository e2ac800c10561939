package middleware

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
)

// DefaultBodyLimit caps request bodies at 1MB.
const DefaultBodyLimit int64 = 1 << 20

// BodyLimitConfig configures the body limit middleware.
type BodyLimitConfig struct {
	Skip    func(ctx handler.Context) bool
	MaxSize int64
}

// BodyLimit rejects bodies over DefaultBodyLimit.
func BodyLimit[C handler.Context]() handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{})
}

// BodyLimitWithConfig answers 413 when Content-Length exceeds the limit and
// wraps the body in http.MaxBytesReader for chunked uploads; binders turn
// the resulting read error into a 413 as well.
func BodyLimitWithConfig[C handler.Context](cfg BodyLimitConfig) handler.Middleware[C] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultBodyLimit
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()
			if req.ContentLength > cfg.MaxSize {
				return response.Error(response.ErrRequestEntityTooLarge.
					WithMessage(fmt.Sprintf("Request body too large, maximum is %d bytes", cfg.MaxSize)).
					WithDetails(map[string]int64{"limit": cfg.MaxSize, "size": req.ContentLength}))
			}
			if req.Body != nil && req.Body != http.NoBody {
				req.Body = http.MaxBytesReader(ctx.ResponseWriter(), req.Body, cfg.MaxSize)
			}
			return next(ctx)
		}
	}
}
