package handler

import "net/http"

// Response renders a result onto the wire. Handlers return it instead of
// writing directly, so middleware can decorate headers before anything is sent.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc handles a request with an application-defined context.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler renders errors returned by a Response or raised by the router.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps a HandlerFunc.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]

// Chain wraps h so that mws run in the given order, the first one outermost.
func Chain[C Context](h HandlerFunc[C], mws ...Middleware[C]) HandlerFunc[C] {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}
