package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/router"
)

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) handler.Middleware[*router.Context] {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				order = append(order, name)
				return next(ctx)
			}
		}
	}

	h := handler.Chain(func(ctx *router.Context) handler.Response {
		order = append(order, "handler")
		return nil
	}, mw("first"), nil, mw("second"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	h(router.NewContext(httptest.NewRecorder(), r, nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
