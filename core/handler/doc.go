// Package handler defines the request-handling contract shared by the router,
// middleware and application handlers.
//
// A handler receives a Context and returns a Response. The router executes the
// Response after the whole middleware chain has returned, which lets middleware
// wrap the Response to add headers or cookies:
//
//	func hello(ctx *router.Context) handler.Response {
//		return response.JSON(map[string]string{"hello": ctx.Param("name")})
//	}
//
//	func withVersion[C handler.Context](next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
//		return func(ctx C) handler.Response {
//			resp := next(ctx)
//			return func(w http.ResponseWriter, r *http.Request) error {
//				w.Header().Set("X-Version", "1")
//				return resp(w, r)
//			}
//		}
//	}
//
// Errors travel as values: a handler returns response.Error(err), and the
// router's ErrorHandler turns it into a status code and body.
package handler
