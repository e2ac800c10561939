package response

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/storefront/core/handler"
)

// JSON writes v as application/json with 200 OK.
func JSON(v any) handler.Response {
	return JSONWithStatus(v, http.StatusOK)
}

// Created writes v as application/json with 201.
func Created(v any) handler.Response {
	return JSONWithStatus(v, http.StatusCreated)
}

// JSONWithStatus writes v with a custom status. A zero status becomes 204 for
// nil data and 200 otherwise.
func JSONWithStatus(v any, status int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if status == 0 {
			if v == nil {
				status = http.StatusNoContent
			} else {
				status = http.StatusOK
			}
		}
		w.WriteHeader(status)

		switch status {
		case http.StatusNoContent, http.StatusNotModified:
			return nil
		}
		return json.NewEncoder(w).Encode(v)
	}
}

// Page is the list envelope used by paginated endpoints.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Paginated writes items with their paging metadata. Nil items render as [].
func Paginated[T any](items []T, total, limit, offset int) handler.Response {
	if items == nil {
		items = []T{}
	}
	return JSON(Page[T]{Items: items, Total: total, Limit: limit, Offset: offset})
}
