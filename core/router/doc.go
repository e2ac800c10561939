// Package router provides a typed HTTP router on top of go-chi/chi.
//
// Handlers receive an application-defined context and return a
// handler.Response. Middleware registered with Use or With wraps handlers at
// registration time, so Use must come before the routes it should cover.
//
//	r := router.New[*router.Context](
//		router.WithErrorHandler(response.JSONErrorHandler[*router.Context]),
//	)
//	r.Use(middleware.RequestID[*router.Context]())
//
//	r.Get("/products/{slug}", func(ctx *router.Context) handler.Response {
//		return response.JSON(map[string]string{"slug": ctx.Param("slug")})
//	})
//
//	r.Route("/admin", func(r router.Router[*router.Context]) {
//		r.Use(requireAdmin)
//		r.Delete("/products/{id}", deleteProduct)
//	})
//
// Panics in handlers are recovered and passed to the error handler as a
// PanicError carrying the value and stack. Unknown paths and methods go to the
// error handler as ErrNotFound and ErrMethodNotAllowed, both of which report
// their status through StatusCode.
package router
