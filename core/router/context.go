package router

import (
	"context"
	"net/http"
	"time"
)

// Context is the default handler.Context implementation.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

// NewContext builds a Context. It is the default context factory.
func NewContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{w: w, r: r, params: params}
}

func (c *Context) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *Context) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *Context) Err() error                  { return c.r.Context().Err() }
func (c *Context) Value(key any) any           { return c.r.Context().Value(key) }

// Request returns the current request, including values added with SetValue.
func (c *Context) Request() *http.Request { return c.r }

// ResponseWriter returns the wrapped writer.
func (c *Context) ResponseWriter() http.ResponseWriter { return c.w }

// Param returns a path parameter or "".
func (c *Context) Param(key string) string { return c.params[key] }

// SetValue stores val in the request context.
func (c *Context) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}

// SetRequest replaces the request, e.g. to attach a deadline.
func (c *Context) SetRequest(r *http.Request) {
	if r != nil {
		c.r = r
	}
}

// SetResponseWriter replaces the writer handlers see, e.g. to buffer output.
func (c *Context) SetResponseWriter(w http.ResponseWriter) {
	if w != nil {
		c.w = w
	}
}
