package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/storefront/core/handler"
)

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	Skip func(ctx handler.Context) bool
	// AllowOrigins is the exact-match allow-list. Empty or "*" allows any origin,
	// which disables credentials.
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// CORS allows any origin without credentials.
func CORS[C handler.Context]() handler.Middleware[C] {
	return CORSWithConfig[C](CORSConfig{})
}

// CORSWithConfig answers preflights with 204 (403 for a disallowed origin or
// method) and decorates other responses for allowed origins.
func CORSWithConfig[C handler.Context](cfg CORSConfig) handler.Middleware[C] {
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{
			"Accept", "Content-Type", "Authorization",
			RequestIDHeader, CSRFHeader, IdempotencyKeyHeader,
		}
	}

	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")

	anyOrigin := len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*")
	origins := make(map[string]bool, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		origins[strings.TrimRight(o, "/")] = true
	}

	resolve := func(origin string) (string, bool) {
		switch {
		case origin == "":
			return "", false
		case anyOrigin:
			return "*", true
		case origins[origin]:
			return origin, true
		}
		return "", false
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()
			h := ctx.ResponseWriter().Header()
			h.Add("Vary", "Origin")

			allowed, ok := resolve(req.Header.Get("Origin"))

			if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
				if !ok || !slices.Contains(cfg.AllowMethods, req.Header.Get("Access-Control-Request-Method")) {
					return func(w http.ResponseWriter, _ *http.Request) error {
						w.WriteHeader(http.StatusForbidden)
						return nil
					}
				}
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Methods", allowMethods)
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				if cfg.AllowCredentials && allowed != "*" {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				return func(w http.ResponseWriter, _ *http.Request) error {
					w.WriteHeader(http.StatusNoContent)
					return nil
				}
			}

			if ok {
				h.Set("Access-Control-Allow-Origin", allowed)
				if cfg.AllowCredentials && allowed != "*" {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if exposeHeaders != "" {
					h.Set("Access-Control-Expose-Headers", exposeHeaders)
				}
			}
			return next(ctx)
		}
	}
}
