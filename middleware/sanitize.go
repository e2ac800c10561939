package middleware

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/sanitizer"
)

// SanitizeConfig configures body sanitization.
type SanitizeConfig struct {
	Skip func(ctx handler.Context) bool
	// Clean is applied to every string in a JSON body (default sanitizer.SanitizeUserInput).
	Clean func(string) string
	// PreserveFields are object keys whose values are left as sent (default: password).
	PreserveFields []string
}

// Sanitize cleans every string value of JSON request bodies before the
// handler binds them. Malformed JSON is left for the binder to reject.
func Sanitize[C handler.Context](cfg SanitizeConfig) handler.Middleware[C] {
	if cfg.Clean == nil {
		cfg.Clean = sanitizer.SanitizeUserInput
	}
	if cfg.PreserveFields == nil {
		cfg.PreserveFields = []string{"password"}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()
			if req.Body == nil || req.Body == http.NoBody || !isJSON(req.Header.Get("Content-Type")) {
				return next(ctx)
			}

			raw, err := io.ReadAll(req.Body)
			_ = req.Body.Close()
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					return response.Error(response.ErrRequestEntityTooLarge.WithError(err))
				}
				return response.Error(response.ErrBadRequest.WithMessage("Unreadable request body").WithError(err))
			}

			if cleaned, err := sanitizer.JSONExcept(raw, cfg.Clean, cfg.PreserveFields...); err == nil {
				raw = cleaned
			}
			req.Body = io.NopCloser(bytes.NewReader(raw))
			req.ContentLength = int64(len(raw))

			return next(ctx)
		}
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}
