package response_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/core/response"
)

func TestJSONWithStatus(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, response.JSONWithStatus(nil, 0)(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = httptest.NewRecorder()
	require.NoError(t, response.Created(map[string]int{"id": 7})(w, httptest.NewRequest(http.MethodPost, "/", nil)))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
}

func TestPaginated_NilItems(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, response.Paginated[string](nil, 0, 20, 0)(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.JSONEq(t, `{"items":[],"total":0,"limit":20,"offset":0}`, w.Body.String())
}

func TestDecorators(t *testing.T) {
	t.Parallel()

	resp := response.WithCache(
		response.WithCookie(response.NoContent(), &http.Cookie{Name: "a", Value: "1"}, nil),
		0,
	)
	w := httptest.NewRecorder()
	require.NoError(t, resp(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "a=1")

	w = httptest.NewRecorder()
	require.NoError(t, response.WithCache(response.NoContent(), time.Minute)(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
}
