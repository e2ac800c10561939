package middleware

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role string
	Name string
}

type principalContextKey struct{}

// TokenParser validates a bearer or cookie token and returns its principal.
type TokenParser func(token string) (*Principal, error)

// IdentityConfig configures the soft authentication middleware.
type IdentityConfig struct {
	Skip  func(ctx handler.Context) bool
	Parse TokenParser
	// Cookies are tried in order, then the Authorization: Bearer header.
	Cookies []string
	Logger  *slog.Logger
}

// Identity attaches the principal of a valid token to the context. Missing or
// invalid tokens leave the request anonymous; RequireRole decides what that means.
func Identity[C handler.Context](cfg IdentityConfig) handler.Middleware[C] {
	if cfg.Parse == nil {
		panic("identity middleware: token parser is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			for _, token := range tokensFrom(ctx, cfg.Cookies) {
				p, err := cfg.Parse(token)
				if err != nil {
					cfg.Logger.DebugContext(ctx, "ignoring invalid credentials", slog.String("error", err.Error()))
					continue
				}
				ctx.SetValue(principalContextKey{}, p)
				break
			}

			return next(ctx)
		}
	}
}

func tokensFrom(ctx handler.Context, cookies []string) []string {
	req := ctx.Request()
	var tokens []string
	for _, name := range cookies {
		if c, err := req.Cookie(name); err == nil && c.Value != "" {
			tokens = append(tokens, c.Value)
		}
	}
	if auth := req.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		tokens = append(tokens, strings.TrimSpace(auth[7:]))
	}
	return tokens
}

// GetPrincipal returns the caller attached by Identity.
func GetPrincipal(ctx handler.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok && p != nil
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth[C handler.Context]() handler.Middleware[C] {
	return RequireRole[C]()
}

// RequireRole answers 401 when no principal is attached and 403 when the
// principal's role is not listed. With no roles any principal passes.
func RequireRole[C handler.Context](roles ...string) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			p, ok := GetPrincipal(ctx)
			if !ok {
				return response.Error(response.ErrUnauthorized)
			}
			if len(roles) > 0 && !slices.Contains(roles, p.Role) {
				return response.Error(response.ErrForbidden.WithMessage("Insufficient permissions"))
			}
			return next(ctx)
		}
	}
}
