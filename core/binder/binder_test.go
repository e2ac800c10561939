package binder_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/core/binder"
)

type orderRequest struct {
	Email string `json:"email"`
	Items []struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	} `json:"items"`
}

func jsonRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	return r
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		var req orderRequest
		r := jsonRequest(`{"email":"a@b.co","items":[{"product_id":1,"quantity":2}]}`)
		require.NoError(t, binder.JSON()(r, &req))
		assert.Equal(t, "a@b.co", req.Email)
		require.Len(t, req.Items, 1)
		assert.Equal(t, 2, req.Items[0].Quantity)

		rest, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(rest), "a@b.co")
	})

	cases := map[string]struct {
		req  *http.Request
		want error
	}{
		"unknown field": {jsonRequest(`{"bogus":1}`), binder.ErrFailedToParseJSON},
		"trailing data": {jsonRequest(`{} {}`), binder.ErrFailedToParseJSON},
		"empty":         {jsonRequest(``), binder.ErrFailedToParseJSON},
		"wrong type":    {func() *http.Request { r := jsonRequest(`{}`); r.Header.Set("Content-Type", "text/plain"); return r }(), binder.ErrUnsupportedMediaType},
		"no type":       {httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), binder.ErrMissingContentType},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var req orderRequest
			err := binder.JSON()(tc.req, &req)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, binder.IsBindError(err))
		})
	}

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		var req orderRequest
		err := binder.JSONWithLimit(8)(jsonRequest(`{"email":"long@example.com"}`), &req)
		assert.ErrorIs(t, err, binder.ErrBodyTooLarge)
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	type filter struct {
		Category string  `query:"category"`
		IDs      []int64 `query:"ids"`
		InStock  *bool   `query:"in_stock"`
		Limit    int
		Skip     string `query:"-"`
	}

	var f filter
	r := httptest.NewRequest(http.MethodGet, "/api/products?category=m12&ids=1,2&ids=3&in_stock=yes&limit=5&Skip=x", nil)
	require.NoError(t, binder.Query()(r, &f))
	assert.Equal(t, "m12", f.Category)
	assert.Equal(t, []int64{1, 2, 3}, f.IDs)
	require.NotNil(t, f.InStock)
	assert.True(t, *f.InStock)
	assert.Equal(t, 5, f.Limit)
	assert.Empty(t, f.Skip)

	r = httptest.NewRequest(http.MethodGet, "/api/products?limit=abc", nil)
	assert.ErrorIs(t, binder.Query()(r, &f), binder.ErrFailedToParseQuery)
}
