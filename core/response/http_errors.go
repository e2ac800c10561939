package response

import "net/http"

// HTTPError is an error with an HTTP status that renders as the JSON envelope
// {"error": "...", "code": "...", "details": ...}.
type HTTPError struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// NewHTTPError creates an error with the given status, machine code and message.
func NewHTTPError(status int, code, message string) HTTPError {
	return HTTPError{Status: status, Code: code, Message: message}
}

// Error implements error.
func (e HTTPError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// StatusCode returns the HTTP status.
func (e HTTPError) StatusCode() int {
	return e.Status
}

// Unwrap returns the attached cause.
func (e HTTPError) Unwrap() error {
	return e.cause
}

// Cause returns the attached cause, or nil.
func (e HTTPError) Cause() error {
	return e.cause
}

// WithMessage returns a copy with a different message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails returns a copy carrying details in the envelope.
func (e HTTPError) WithDetails(details any) HTTPError {
	e.Details = details
	return e
}

// WithError returns a copy wrapping err. The cause is logged but never rendered
// in production.
func (e HTTPError) WithError(err error) HTTPError {
	e.cause = err
	return e
}

// Is matches HTTPErrors by status and code, so errors.Is(err, ErrConflict)
// holds for copies made with the With* methods.
func (e HTTPError) Is(target error) bool {
	t, ok := target.(HTTPError)
	return ok && t.Status == e.Status && t.Code == e.Code
}

var (
	ErrBadRequest            = NewHTTPError(http.StatusBadRequest, "bad_request", "Bad request")
	ErrUnauthorized          = NewHTTPError(http.StatusUnauthorized, "unauthorized", "Authentication required")
	ErrForbidden             = NewHTTPError(http.StatusForbidden, "forbidden", "Forbidden")
	ErrNotFound              = NewHTTPError(http.StatusNotFound, "not_found", "Not found")
	ErrMethodNotAllowed      = NewHTTPError(http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	ErrConflict              = NewHTTPError(http.StatusConflict, "conflict", "Conflict")
	ErrRequestEntityTooLarge = NewHTTPError(http.StatusRequestEntityTooLarge, "request_entity_too_large", "Request entity too large")
	ErrUnsupportedMediaType  = NewHTTPError(http.StatusUnsupportedMediaType, "unsupported_media_type", "Unsupported media type")
	ErrUnprocessableEntity   = NewHTTPError(http.StatusUnprocessableEntity, "unprocessable_entity", "Unprocessable entity")
	ErrTooManyRequests       = NewHTTPError(http.StatusTooManyRequests, "too_many_requests", "Too many requests")
	ErrInternalServerError   = NewHTTPError(http.StatusInternalServerError, "internal_server_error", "Internal server error")
	ErrServiceUnavailable    = NewHTTPError(http.StatusServiceUnavailable, "service_unavailable", "Service unavailable")
	ErrGatewayTimeout        = NewHTTPError(http.StatusGatewayTimeout, "gateway_timeout", "Gateway timeout")
)

var httpErrorsByStatus = map[int]HTTPError{
	http.StatusBadRequest:            ErrBadRequest,
	http.StatusUnauthorized:          ErrUnauthorized,
	http.StatusForbidden:             ErrForbidden,
	http.StatusNotFound:              ErrNotFound,
	http.StatusMethodNotAllowed:      ErrMethodNotAllowed,
	http.StatusConflict:              ErrConflict,
	http.StatusRequestEntityTooLarge: ErrRequestEntityTooLarge,
	http.StatusUnsupportedMediaType:  ErrUnsupportedMediaType,
	http.StatusUnprocessableEntity:   ErrUnprocessableEntity,
	http.StatusTooManyRequests:       ErrTooManyRequests,
	http.StatusInternalServerError:   ErrInternalServerError,
	http.StatusServiceUnavailable:    ErrServiceUnavailable,
	http.StatusGatewayTimeout:        ErrGatewayTimeout,
}
