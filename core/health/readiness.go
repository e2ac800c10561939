package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/core/response"
)

// DefaultCheckTimeout bounds each dependency check.
const DefaultCheckTimeout = 2 * time.Second

// Check is a named dependency probe.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Report is the readiness body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Readiness runs every check and answers 200 {"status":"ready"} or
// 503 {"status":"degraded"} naming the failing checks. Errors are logged,
// never rendered.
func Readiness[C handler.Context](log *slog.Logger, checks ...Check) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx C) handler.Response {
		report := Report{Status: "ready", Checks: make(map[string]string, len(checks))}
		for _, c := range checks {
			cctx, cancel := context.WithTimeout(ctx, DefaultCheckTimeout)
			err := c.Fn(cctx)
			cancel()

			if err != nil {
				log.WarnContext(ctx, "readiness check failed", slog.String("check", c.Name), logger.Error(err))
				report.Status = "degraded"
				report.Checks[c.Name] = "fail"
				continue
			}
			report.Checks[c.Name] = "ok"
		}

		if report.Status != "ready" {
			return response.JSONWithStatus(report, http.StatusServiceUnavailable)
		}
		return response.JSON(report)
	}
}
