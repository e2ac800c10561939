package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/middleware"
	"github.com/dmitrymomot/storefront/pkg/csrf"
	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
	"github.com/dmitrymomot/storefront/pkg/tokenstore"
)

type mw = handler.Middleware[*router.Context]

func newRouter(mws ...mw) router.Router[*router.Context] {
	return router.New[*router.Context](
		router.WithErrorHandler(response.NewJSONErrorHandler[*router.Context](response.ErrorHandlerConfig{})),
		router.WithMiddleware(mws...),
	)
}

func ok(*router.Context) handler.Response { return response.JSON(map[string]string{"status": "ok"}) }

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	r := newRouter(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{TrustIncoming: true}))
	r.Get("/", func(ctx *router.Context) handler.Response {
		seen, _ = middleware.GetRequestID(ctx)
		return response.NoContent()
	})

	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "edge-1234abcd")
	w = do(r, req)
	assert.Equal(t, "edge-1234abcd", w.Header().Get(middleware.RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "bad id with spaces")
	w = do(r, req)
	assert.NotEqual(t, "bad id with spaces", w.Header().Get(middleware.RequestIDHeader))
}

func TestRequestID_SetOnErrorResponses(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.RequestID[*router.Context]())
	r.Get("/", func(*router.Context) handler.Response { return response.Error(response.ErrNotFound) })

	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRateLimit_RejectsAfterLimitAndRecovers(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	store := tokenstore.NewMemoryStore(tokenstore.WithClock(c.Now))
	limiter, err := ratelimiter.NewFixedWindow(store,
		ratelimiter.Config{Limit: 10, Window: time.Minute, Prefix: "submit"},
		ratelimiter.WithClock(c.Now))
	require.NoError(t, err)

	var rejected []string
	r := newRouter(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
		Limiter:  limiter,
		Class:    "submit",
		OnReject: func(class string) { rejected = append(rejected, class) },
		Logger:   logger.Discard(),
	}))
	r.Get("/api/inquiries", ok)

	req := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/inquiries", nil)
		req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
		req.Header.Set("User-Agent", "test-agent")
		return req
	}

	for i := range 10 {
		w := do(r, req())
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	}

	w := do(r, req())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, []string{"submit"}, rejected)

	// Another client is counted separately.
	other := req()
	other.Header.Set("X-Forwarded-For", "9.9.9.9")
	assert.Equal(t, http.StatusOK, do(r, other).Code)

	c.Advance(time.Minute)
	assert.Equal(t, http.StatusOK, do(r, req()).Code)
}

func TestCSRF(t *testing.T) {
	t.Parallel()

	var rejected []string
	tokens := csrf.NewManager(tokenstore.NewMemoryStore())
	r := newRouter(middleware.CSRF[*router.Context](middleware.CSRFConfig{
		Tokens:   tokens,
		OnReject: func(reason string) { rejected = append(rejected, reason) },
		Logger:   logger.Discard(),
	}))
	r.Get("/api/csrf-token", func(ctx *router.Context) handler.Response {
		token, _ := middleware.GetCSRFToken(ctx)
		return response.JSON(map[string]string{"token": token})
	})
	r.Post("/api/contact", ok)

	newReq := func(method string) *http.Request {
		req := httptest.NewRequest(method, "/api/contact", strings.NewReader(`{}`))
		if method == http.MethodGet {
			req = httptest.NewRequest(method, "/api/csrf-token", nil)
		}
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("User-Agent", "browser")
		return req
	}

	w := do(r, newReq(http.MethodGet))
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Header().Get(middleware.CSRFHeader)
	require.NotEmpty(t, token)
	assert.Contains(t, w.Body.String(), token)

	// Safe requests reuse the live token.
	assert.Equal(t, token, do(r, newReq(http.MethodGet)).Header().Get(middleware.CSRFHeader))

	w = do(r, newReq(http.MethodPost))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Invalid CSRF token", errorBody(t, w)["error"])

	bad := newReq(http.MethodPost)
	bad.Header.Set(middleware.CSRFHeader, "forged")
	assert.Equal(t, http.StatusForbidden, do(r, bad).Code)

	good := newReq(http.MethodPost)
	good.Header.Set(middleware.CSRFHeader, token)
	assert.Equal(t, http.StatusOK, do(r, good).Code)

	// A different client cannot reuse the token.
	stolen := newReq(http.MethodPost)
	stolen.RemoteAddr = "10.0.0.2:1234"
	stolen.Header.Set(middleware.CSRFHeader, token)
	assert.Equal(t, http.StatusForbidden, do(r, stolen).Code)

	assert.Equal(t, []string{"missing", "invalid", "invalid"}, rejected)
}

func parseToken(token string) (*middleware.Principal, error) {
	role, id, found := strings.Cut(token, ":")
	if !found {
		return nil, errors.New("malformed")
	}
	return &middleware.Principal{ID: id, Role: role}, nil
}

func TestIdentityAndRequireRole(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.Identity[*router.Context](middleware.IdentityConfig{
		Parse:   parseToken,
		Cookies: []string{"admin_token", "user_token"},
		Logger:  logger.Discard(),
	}))
	r.With(middleware.RequireRole[*router.Context]("admin")).Get("/admin", ok)
	r.With(middleware.RequireAuth[*router.Context]()).Get("/me", func(ctx *router.Context) handler.Response {
		p, _ := middleware.GetPrincipal(ctx)
		return response.String(p.ID)
	})

	w := do(r, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "user_token", Value: "customer:42"})
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: "admin:1"})
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer customer:7")
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Body.String())

	// An invalid token leaves the request anonymous.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.Sanitize[*router.Context](middleware.SanitizeConfig{}))
	r.Post("/echo", func(ctx *router.Context) handler.Response {
		body, _ := io.ReadAll(ctx.Request().Body)
		return response.String(string(body))
	})

	req := httptest.NewRequest(http.MethodPost, "/echo",
		strings.NewReader(`{"name":" Jane<script>alert(1)</script> ","password":" keep<me> ","qty":2}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(r, req)
	assert.JSONEq(t, `{"name":"Jane","password":" keep<me> ","qty":2}`, w.Body.String())

	// Malformed JSON is passed through for the binder to reject.
	req = httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, `{"a":`, do(r, req).Body.String())
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.TimeoutWithConfig[*router.Context](middleware.TimeoutConfig{Timeout: 20 * time.Millisecond}))
	r.Get("/slow", func(ctx *router.Context) handler.Response {
		<-ctx.Done()
		return response.Error(ctx.Err())
	})
	r.Get("/fast", ok)

	w := do(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "request timed out", errorBody(t, w)["error"])

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/fast", nil)).Code)
}

func TestTimeout_HandlerIgnoringContext(t *testing.T) {
	t.Parallel()

	lateWrite := make(chan error, 1)
	r := newRouter(middleware.TimeoutWithConfig[*router.Context](middleware.TimeoutConfig{
		Timeout: 50 * time.Millisecond,
		Logger:  logger.Discard(),
	}))
	r.Get("/blocking", func(ctx *router.Context) handler.Response {
		time.Sleep(500 * time.Millisecond)
		return func(w http.ResponseWriter, _ *http.Request) error {
			_, err := w.Write([]byte("late"))
			lateWrite <- err
			return err
		}
	})

	start := time.Now()
	w := do(r, httptest.NewRequest(http.MethodGet, "/blocking", nil))
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "request timed out", errorBody(t, w)["error"])
	assert.Less(t, elapsed, 300*time.Millisecond)

	select {
	case err := <-lateWrite:
		assert.ErrorIs(t, err, http.ErrHandlerTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never finished")
	}
	assert.NotContains(t, w.Body.String(), "late")
}

func TestTimeout_FlushesBufferedResponse(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.TimeoutWithConfig[*router.Context](middleware.TimeoutConfig{Timeout: time.Second}))
	r.Get("/created", func(ctx *router.Context) handler.Response {
		ctx.ResponseWriter().Header().Set("X-Custom", "yes")
		return response.JSONWithStatus(map[string]string{"id": "42"}, http.StatusCreated)
	})
	r.Get("/missing", func(ctx *router.Context) handler.Response {
		ctx.ResponseWriter().Header().Set("X-Custom", "still")
		return response.Error(response.ErrNotFound)
	})

	w := do(r, httptest.NewRequest(http.MethodGet, "/created", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "yes", w.Header().Get("X-Custom"))
	assert.JSONEq(t, `{"id":"42"}`, w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "still", w.Header().Get("X-Custom"))
}

func TestChainShortCircuits(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Now()}
	limiter, err := ratelimiter.NewFixedWindow(tokenstore.NewMemoryStore(tokenstore.WithClock(c.Now)),
		ratelimiter.Config{Limit: 1, Window: time.Minute}, ratelimiter.WithClock(c.Now))
	require.NoError(t, err)

	var csrfCalls, handlerCalls int
	countingTokens := &countingCSRF{calls: &csrfCalls}

	r := newRouter(
		middleware.RateLimit[*router.Context](middleware.RateLimitConfig{Limiter: limiter, Logger: logger.Discard()}),
		middleware.CSRF[*router.Context](middleware.CSRFConfig{Tokens: countingTokens, Logger: logger.Discard()}),
		middleware.RequireRole[*router.Context]("admin"),
	)
	r.Post("/api/admin/products", func(*router.Context) handler.Response {
		handlerCalls++
		return response.NoContent()
	})

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/products", nil)
		req.Header.Set(middleware.CSRFHeader, "t")
		return do(r, req)
	}

	// CSRF passes, auth rejects.
	assert.Equal(t, http.StatusUnauthorized, post().Code)
	assert.Equal(t, 1, csrfCalls)

	// Rate limit rejects before CSRF runs.
	assert.Equal(t, http.StatusTooManyRequests, post().Code)
	assert.Equal(t, 1, csrfCalls)
	assert.Zero(t, handlerCalls)
}

type countingCSRF struct{ calls *int }

func (c *countingCSRF) Issue(_ context.Context, _ string) (string, error) { return "t", nil }
func (c *countingCSRF) Validate(_ context.Context, _, _ string) error {
	*c.calls++
	return nil
}
func (c *countingCSRF) Invalidate(_ context.Context, _ string) error { return nil }

func TestCORS(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.CORSWithConfig[*router.Context](middleware.CORSConfig{
		AllowOrigins:     []string{"https://shop.example.com"},
		AllowCredentials: true,
		ExposeHeaders:    []string{middleware.CSRFHeader},
	}))
	r.Get("/api/products", ok)
	r.Options("/api/products", ok)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w := do(r, req)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, middleware.CSRFHeader, w.Header().Get("Access-Control-Expose-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = do(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	pre := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	pre.Header.Set("Origin", "https://shop.example.com")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = do(r, pre)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), middleware.CSRFHeader)

	pre.Header.Set("Origin", "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, do(r, pre).Code)
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.BodyLimitWithConfig[*router.Context](middleware.BodyLimitConfig{MaxSize: 8}))
	r.Post("/", ok)

	w := do(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))).Code)
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.SecurityHeaders[*router.Context]())
	r.Get("/", ok)
	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	dev := middleware.APISecurity
	dev.Development = true
	r = newRouter(middleware.SecurityHeadersWithConfig[*router.Context](dev))
	r.Get("/", ok)
	assert.Empty(t, do(r, httptest.NewRequest(http.MethodGet, "/", nil)).Header().Get("Strict-Transport-Security"))
}

type observation struct {
	method, route string
	status        int
}

type fakeObserver struct{ got []observation }

func (f *fakeObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	f.got = append(f.got, observation{method, route, status})
}

func TestMetricsAndLogging(t *testing.T) {
	t.Parallel()

	obs := &fakeObserver{}
	r := newRouter(
		middleware.LoggingWithLogger[*router.Context](logger.Discard()),
		middleware.Metrics[*router.Context](middleware.MetricsConfig{Observer: obs}),
	)
	r.Get("/api/products/{slug}", ok)
	r.Get("/boom", func(*router.Context) handler.Response { return response.Error(errors.New("boom")) })

	do(r, httptest.NewRequest(http.MethodGet, "/api/products/m12", nil))
	do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, []observation{
		{http.MethodGet, "/api/products/{slug}", http.StatusOK},
		{http.MethodGet, "/boom", http.StatusInternalServerError},
	}, obs.got)
}
