package binder

import "net/http"

// Query binds URL query parameters using `query:"name"` tags. Untagged fields
// use the lowercased field name; `query:"-"` skips. Slices accept repeated
// parameters or comma-separated values; pointers mark optional values.
//
//	type ProductFilter struct {
//		Category string   `query:"category"`
//		IDs      []int64  `query:"ids"`
//		InStock  *bool    `query:"in_stock"`
//		Limit    int      `query:"limit"`
//	}
func Query() Binder {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
