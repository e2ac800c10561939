package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/storefront/core/handler"
)

// HTTPObserver records finished requests.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// MetricsConfig configures the metrics middleware.
type MetricsConfig struct {
	Skip     func(ctx handler.Context) bool
	Observer HTTPObserver
}

// Metrics reports every request to the observer, labelled with the matched
// route pattern rather than the raw path to keep cardinality bounded.
func Metrics[C handler.Context](cfg MetricsConfig) handler.Middleware[C] {
	if cfg.Observer == nil {
		panic("metrics middleware: observer is required")
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				rec := &recorder{ResponseWriter: w}
				err := resp(rec, r)
				cfg.Observer.ObserveHTTP(r.Method, routePattern(r), rec.finalStatus(err), time.Since(start))
				return err
			}
		}
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
