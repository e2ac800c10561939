package binder

import (
	"errors"
	"net/http"
)

// Binder fills v from part of the request.
type Binder func(r *http.Request, v any) error

// Bind runs binders in order and stops at the first error.
func Bind(r *http.Request, v any, binders ...Binder) error {
	for _, b := range binders {
		if err := b(r, v); err != nil {
			return err
		}
	}
	return nil
}

// IsBindError reports whether err came from a binder, i.e. the client sent a
// malformed request.
func IsBindError(err error) bool {
	return errors.Is(err, ErrFailedToParseJSON) ||
		errors.Is(err, ErrFailedToParseQuery) ||
		errors.Is(err, ErrMissingContentType) ||
		errors.Is(err, ErrUnsupportedMediaType) ||
		errors.Is(err, ErrBodyTooLarge)
}
