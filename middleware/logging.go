package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/logger"
)

// LoggingConfig configures request logging.
type LoggingConfig struct {
	Skip   func(ctx handler.Context) bool
	Logger *slog.Logger
	// SlowRequestThreshold promotes slow successful requests to warn (default 5s).
	SlowRequestThreshold time.Duration
}

// Logging logs one record per request through slog.Default().
func Logging[C handler.Context]() handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{})
}

// LoggingWithLogger logs through log.
func LoggingWithLogger[C handler.Context](log *slog.Logger) handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{Logger: log})
}

// LoggingWithConfig logs method, path, status, size and duration when the
// response has been produced. 5xx log at error, 4xx and slow requests at warn.
func LoggingWithConfig[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
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

				status := rec.finalStatus(err)
				elapsed := time.Since(start)
				requestID, _ := GetRequestID(ctx)

				attrs := []slog.Attr{
					logger.Component("http"),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(status),
					logger.BytesOut(rec.bytes),
					logger.Duration(elapsed),
					logger.ClientIP(GetClientIP(ctx)),
					logger.RequestID(requestID),
				}
				if p, ok := GetPrincipal(ctx); ok {
					attrs = append(attrs, logger.UserID(p.ID))
				}

				level := slog.LevelInfo
				switch {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
					attrs = append(attrs, logger.Error(err))
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
				case elapsed > cfg.SlowRequestThreshold:
					level = slog.LevelWarn
					attrs = append(attrs, slog.Bool("slow_request", true))
				}

				cfg.Logger.LogAttrs(r.Context(), level, "http request", attrs...)
				return err
			}
		}
	}
}
