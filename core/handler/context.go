package handler

import (
	"context"
	"net/http"
)

// Context is the request context handed to handlers and middleware.
// SetValue stores request-scoped values that later stages read with Value.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}
