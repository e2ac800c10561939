package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
)

// DefaultRequestTimeout bounds the time a handler may take.
const DefaultRequestTimeout = 30 * time.Second

// ErrRequestTimeout is returned when the request deadline passes.
var ErrRequestTimeout = response.ErrServiceUnavailable.WithMessage("request timed out")

// timeoutContext is implemented by contexts whose request and writer can be
// swapped.
type timeoutContext interface {
	SetRequest(r *http.Request)
	SetResponseWriter(w http.ResponseWriter)
}

// TimeoutConfig configures the timeout middleware.
type TimeoutConfig struct {
	Skip    func(ctx handler.Context) bool
	Timeout time.Duration
	// Logger receives panics raised by handlers after their deadline.
	Logger *slog.Logger
}

// Timeout applies DefaultRequestTimeout.
func Timeout[C handler.Context]() handler.Middleware[C] {
	return TimeoutWithConfig[C](TimeoutConfig{})
}

// TimeoutWithConfig runs the rest of the chain in its own goroutine with a
// deadline on the request context and its output buffered. When the deadline
// passes first the client gets 503 "request timed out" at once and later
// writes by the handler fail with http.ErrHandlerTimeout. The handler itself
// is not stopped: database calls that ignore the context run to completion.
func TimeoutWithConfig[C handler.Context](cfg TimeoutConfig) handler.Middleware[C] {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}
			swapper, ok := any(ctx).(timeoutContext)
			if !ok {
				return next(ctx)
			}

			orig := ctx.ResponseWriter()
			req := ctx.Request()
			tctx, cancel := context.WithTimeout(req.Context(), cfg.Timeout)
			tw := &timeoutWriter{header: orig.Header().Clone()}
			swapper.SetRequest(req.WithContext(tctx))
			swapper.SetResponseWriter(tw)

			type result struct {
				err   error
				panic any
			}
			done := make(chan result, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						done <- result{panic: p}
					}
				}()
				resp := next(ctx)
				var err error
				if resp != nil {
					err = resp(tw, ctx.Request())
				}
				done <- result{err: err}
			}()

			select {
			case res := <-done:
				cancel()
				swapper.SetResponseWriter(orig)
				if res.panic != nil {
					panic(res.panic)
				}
				return func(w http.ResponseWriter, _ *http.Request) error {
					if err := tw.flushTo(w); err != nil {
						return err
					}
					if res.err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
						return ErrRequestTimeout.WithError(res.err)
					}
					return res.err
				}

			case <-tctx.Done():
				cancel()
				tw.timeout()
				go func() {
					if res := <-done; res.panic != nil {
						cfg.Logger.Error("panic after request timeout",
							slog.Any("value", res.panic),
							slog.String("method", req.Method),
							slog.String("path", req.URL.Path))
					}
				}()
				return response.JSONWithStatus(ErrRequestTimeout, ErrRequestTimeout.Status)
			}
		}
	}
}

// timeoutWriter buffers the handler's response until the middleware decides
// whether it reaches the client.
type timeoutWriter struct {
	mu       sync.Mutex
	header   http.Header
	buf      bytes.Buffer
	status   int
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) WriteHeader(status int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.status != 0 {
		return
	}
	tw.status = status
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if tw.status == 0 {
		tw.status = http.StatusOK
	}
	return tw.buf.Write(b)
}

// Written lets the error handler see that output already started.
func (tw *timeoutWriter) Written() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.status != 0
}

func (tw *timeoutWriter) timeout() {
	tw.mu.Lock()
	tw.timedOut = true
	tw.mu.Unlock()
}

// flushTo copies the buffered headers, status and body to w. The handler has
// returned, so no lock is needed for the header map.
func (tw *timeoutWriter) flushTo(w http.ResponseWriter) error {
	dst := w.Header()
	for k := range dst {
		if _, ok := tw.header[k]; !ok {
			dst.Del(k)
		}
	}
	for k, v := range tw.header {
		dst[k] = v
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.status == 0 {
		return nil
	}
	w.WriteHeader(tw.status)
	_, err := w.Write(tw.buf.Bytes())
	return err
}
