package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/router"
)

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_ParamsAndMethods(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/products/{slug}", func(ctx *router.Context) handler.Response {
		return response.String("get " + ctx.Param("slug"))
	})
	r.Put("/products/{slug}", func(ctx *router.Context) handler.Response {
		return response.String("put " + ctx.Param("slug"))
	})

	w := serve(t, r, http.MethodGet, "/products/m12-connector")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "get m12-connector", w.Body.String())

	w = serve(t, r, http.MethodPut, "/products/x")
	assert.Equal(t, "put x", w.Body.String())

	w = serve(t, r, http.MethodDelete, "/products/x")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = serve(t, r, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_MiddlewareOrderAndScope(t *testing.T) {
	t.Parallel()

	tag := func(name string) handler.Middleware[*router.Context] {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				resp := next(ctx)
				return func(w http.ResponseWriter, r *http.Request) error {
					w.Header().Add("X-Trace", name)
					return resp(w, r)
				}
			}
		}
	}

	r := router.New[*router.Context](router.WithMiddleware(tag("global")))
	r.Use(tag("use"))
	r.Get("/plain", func(*router.Context) handler.Response { return response.NoContent() })
	r.With(tag("with")).Get("/with", func(*router.Context) handler.Response { return response.NoContent() })
	r.Route("/admin", func(r router.Router[*router.Context]) {
		r.Use(tag("admin"))
		r.Get("/", func(*router.Context) handler.Response { return response.NoContent() })
	})

	assert.Equal(t, []string{"global", "use"}, serve(t, r, http.MethodGet, "/plain").Header().Values("X-Trace"))
	assert.Equal(t, []string{"global", "use", "with"}, serve(t, r, http.MethodGet, "/with").Header().Values("X-Trace"))
	assert.Equal(t, []string{"global", "use", "admin"}, serve(t, r, http.MethodGet, "/admin/").Header().Values("X-Trace"))
}

func TestRouter_UseAfterRoutesPanics(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/", func(*router.Context) handler.Response { return response.NoContent() })
	assert.Panics(t, func() { r.Use(nil) })
}

func TestRouter_ErrorHandling(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context](router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
	r.Get("/conflict", func(*router.Context) handler.Response {
		return response.Error(response.ErrConflict)
	})
	r.Get("/nil", func(*router.Context) handler.Response { return nil })
	r.Get("/panic", func(*router.Context) handler.Response { panic(errors.New("boom")) })

	w := serve(t, r, http.MethodGet, "/conflict")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)

	w = serve(t, r, http.MethodGet, "/nil")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = serve(t, r, http.MethodGet, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = serve(t, r, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PanicErrorCarriesStack(t *testing.T) {
	t.Parallel()

	var got router.PanicError
	r := router.New[*router.Context](router.WithErrorHandler(func(ctx *router.Context, err error) {
		require.ErrorAs(t, err, &got)
		ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
	}))
	r.Get("/", func(*router.Context) handler.Response { panic("kaput") })

	w := serve(t, r, http.MethodGet, "/")
	assert.Equal(t, http.StatusTeapot, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "kaput", got.Value())
	assert.NotEmpty(t, got.Stack())
}

func TestRouter_SetValueVisibleToResponse(t *testing.T) {
	t.Parallel()

	type key struct{}
	r := router.New[*router.Context]()
	r.Use(func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
		return func(ctx *router.Context) handler.Response {
			ctx.SetValue(key{}, "v")
			return next(ctx)
		}
	})
	r.Get("/", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, req *http.Request) error {
			_, err := w.Write([]byte(req.Context().Value(key{}).(string)))
			return err
		}
	})

	assert.Equal(t, "v", serve(t, r, http.MethodGet, "/").Body.String())
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/a", func(*router.Context) handler.Response { return response.NoContent() })
	r.Method("/b", func(*router.Context) handler.Response { return response.NoContent() }, "post", "POST", "patch")

	routes := r.Routes()
	assert.Contains(t, routes, router.Route{Method: http.MethodGet, Pattern: "/a"})
	assert.Contains(t, routes, router.Route{Method: http.MethodPost, Pattern: "/b"})
	assert.Contains(t, routes, router.Route{Method: http.MethodPatch, Pattern: "/b"})
}

func TestRouter_CustomContextRequiresFactory(t *testing.T) {
	t.Parallel()

	type appContext struct{ *router.Context }
	r := router.New[*appContext](router.WithErrorHandler(func(ctx *appContext, err error) {}))
	r.Get("/", func(*appContext) handler.Response { return response.NoContent() })

	assert.Panics(t, func() { serve(t, r, http.MethodGet, "/") })
}
