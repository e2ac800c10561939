package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/storefront/core/handler"
)

// mux adapts chi's routing tree to typed handlers.
// Inline muxes (With, Group) share the parent's chi router and differ only in middleware.
type mux[C handler.Context] struct {
	tree         chi.Router
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger
	inline       bool
	hasRoutes    bool
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		tree:         chi.NewRouter(),
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		m.newContext = func(w http.ResponseWriter, r *http.Request, params map[string]string) C {
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(NewContext(w, r, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	m.tree.NotFound(m.fail(ErrNotFound))
	m.tree.MethodNotAllowed(m.fail(ErrMethodNotAllowed))
	return m
}

// ServeHTTP implements http.Handler.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.tree.ServeHTTP(w, r)
}

func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodGet, pattern, h)
}

func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPost, pattern, h)
}

func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPut, pattern, h)
}

func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

func (m *mux[C]) Head(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodHead, pattern, h)
}

func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodOptions, pattern, h)
}

func (m *mux[C]) Handle(pattern string, h handler.HandlerFunc[C]) {
	m.hasRoutes = true
	m.tree.Handle(pattern, m.serve(handler.Chain(h, m.middlewares...)))
}

func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	if len(methods) == 0 {
		panic(fmt.Errorf("%w: no methods provided", ErrInvalidMethod))
	}
	seen := make(map[string]bool, len(methods))
	for _, method := range methods {
		method = strings.ToUpper(method)
		if seen[method] {
			continue
		}
		seen[method] = true
		m.handle(method, pattern, h)
	}
}

func (m *mux[C]) HandleHTTP(pattern string, h http.Handler) {
	m.hasRoutes = true
	m.tree.Handle(pattern, h)
}

// Use appends middleware. It panics once routes are registered on a non-inline mux,
// because already registered routes would silently miss it.
func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	if m.hasRoutes && !m.inline {
		panic("router: all middlewares must be defined before routes on a mux")
	}
	m.middlewares = append(m.middlewares, middlewares...)
}

func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	return &mux[C]{
		tree:         m.tree,
		middlewares:  append(slices.Clone(m.middlewares), middlewares...),
		errorHandler: m.errorHandler,
		newContext:   m.newContext,
		logger:       m.logger,
		inline:       true,
	}
}

func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	im := m.With()
	if fn != nil {
		fn(im)
	}
	return im
}

// Route mounts a sub-router at pattern. The sub-router inherits the middleware
// registered so far.
func (m *mux[C]) Route(pattern string, fn func(r Router[C])) Router[C] {
	if fn == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilSubrouter, pattern))
	}
	sub := &mux[C]{
		tree:         chi.NewRouter(),
		middlewares:  slices.Clone(m.middlewares),
		errorHandler: m.errorHandler,
		newContext:   m.newContext,
		logger:       m.logger,
	}
	sub.tree.NotFound(sub.fail(ErrNotFound))
	sub.tree.MethodNotAllowed(sub.fail(ErrMethodNotAllowed))

	fn(sub)
	m.hasRoutes = true
	m.tree.Mount(pattern, sub.tree)
	return sub
}

// Routes lists every route reachable from this mux.
func (m *mux[C]) Routes() []Route {
	var routes []Route
	_ = chi.Walk(m.tree, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, Route{Method: method, Pattern: route})
		return nil
	})
	return routes
}

func (m *mux[C]) handle(method, pattern string, h handler.HandlerFunc[C]) {
	if len(pattern) == 0 || pattern[0] != '/' {
		panic(fmt.Errorf("router: invalid pattern '%s'", pattern))
	}
	m.hasRoutes = true
	m.tree.Method(method, pattern, m.serve(handler.Chain(h, m.middlewares...)))
}

// serve adapts a typed handler to net/http: it builds the context, recovers
// panics, runs the Response and routes failures to the error handler.
func (m *mux[C]) serve(h handler.HandlerFunc[C]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := newResponseWriter(w)
		ctx := m.newContext(ww, r, urlParams(r))

		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			perr := &panicError{value: p, stack: debug.Stack()}
			if ww.Written() {
				m.logger.Error("panic after response written",
					slog.Any("value", perr.value),
					slog.String("stack", string(perr.stack)),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
				)
				return
			}
			m.errorHandler(ctx, perr)
		}()

		resp := h(ctx)
		if resp == nil {
			m.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := resp(ww, ctx.Request()); err != nil {
			m.errorHandler(ctx, err)
		}
	}
}

func (m *mux[C]) fail(err error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := m.newContext(newResponseWriter(w), r, nil)
		m.errorHandler(ctx, err)
	}
}

func urlParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || len(rctx.URLParams.Keys) == 0 {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if i < len(rctx.URLParams.Values) && key != "*" {
			params[key] = rctx.URLParams.Values[i]
		}
	}
	return params
}
