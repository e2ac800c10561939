package health

import (
	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
)

// Liveness reports that the process is up. It never checks dependencies, so a
// service running in degraded mode stays alive.
func Liveness[C handler.Context](C) handler.Response {
	return response.String("ALIVE")
}
