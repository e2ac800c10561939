package response

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/storefront/core/handler"
)

// statusCode is implemented by errors that know their HTTP status.
type statusCode interface {
	StatusCode() int
}

// stackTracer is implemented by recovered panics.
type stackTracer interface {
	Stack() []byte
}

// convertToHTTPError maps any error onto an HTTPError.
func convertToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	base, ok := httpErrorsByStatus[status]
	if !ok {
		base = NewHTTPError(status, "", http.StatusText(status))
	}
	return base.WithError(err)
}

// ErrorHandlerConfig configures NewJSONErrorHandler.
type ErrorHandlerConfig struct {
	// Production hides messages and details of 5xx errors behind a generic message.
	Production bool
	// Logger receives every 5xx error with its cause and, for panics, the stack.
	Logger *slog.Logger
}

// NewJSONErrorHandler renders errors as the JSON envelope.
func NewJSONErrorHandler[C handler.Context](cfg ErrorHandlerConfig) handler.ErrorHandler[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(ctx C, err error) {
		w := ctx.ResponseWriter()
		if ww, ok := w.(interface{ Written() bool }); ok && ww.Written() {
			return
		}

		httpErr := convertToHTTPError(err)

		if httpErr.Status >= http.StatusInternalServerError {
			attrs := []any{
				slog.Int("status_code", httpErr.Status),
				slog.String("method", ctx.Request().Method),
				slog.String("path", ctx.Request().URL.Path),
				slog.Any("error", err),
			}
			var st stackTracer
			if errors.As(err, &st) {
				attrs = append(attrs, slog.String("stack", string(st.Stack())))
			}
			cfg.Logger.ErrorContext(ctx, "request failed", attrs...)

			if cfg.Production {
				var explicit HTTPError
				httpErr = HTTPError{
					Status:  httpErr.Status,
					Code:    httpErr.Code,
					Message: publicMessage(httpErr, errors.As(err, &explicit)),
				}
			} else if httpErr.Details == nil && httpErr.cause != nil {
				details := map[string]any{"cause": httpErr.cause.Error()}
				if st != nil {
					details["stack"] = string(st.Stack())
				}
				httpErr.Details = details
			}
		}

		Render(ctx, JSONWithStatus(httpErr, httpErr.Status))
	}
}

// publicMessage is the production text of a 5xx error. A 500 is always generic;
// other statuses keep a message set on an HTTPError and fall back to the status text.
func publicMessage(e HTTPError, explicit bool) string {
	switch {
	case e.Status == http.StatusInternalServerError:
		return ErrInternalServerError.Message
	case explicit:
		return e.Message
	}
	if base, ok := httpErrorsByStatus[e.Status]; ok {
		return base.Message
	}
	return http.StatusText(e.Status)
}

// JSONErrorHandler renders errors as the JSON envelope with development details.
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	NewJSONErrorHandler[C](ErrorHandlerConfig{})(ctx, err)
}

// ErrorHandler renders errors as plain text.
func ErrorHandler[C handler.Context](ctx C, err error) {
	httpErr := convertToHTTPError(err)
	Render(ctx, StringWithStatus(httpErr.Message, httpErr.Status))
}
