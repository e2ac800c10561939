// Package health provides liveness and readiness handlers.
//
//	r.Get("/health/live", health.Liveness[*router.Context])
//	r.Get("/health/ready", health.Readiness[*router.Context](log,
//		health.Check{Name: "database", Fn: db.Healthcheck},
//		health.Check{Name: "tokenstore", Fn: store.Healthcheck},
//	))
package health
