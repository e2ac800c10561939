// Package middleware provides the typed HTTP middleware of the storefront API.
//
// Every middleware follows one shape: a XxxConfig struct with an optional
// Skip func, a Xxx[C]() constructor with defaults and, where values are
// stored, a GetXxx(ctx) accessor.
//
// The API mounts them in this order:
//
//	RequestID → Logging → Metrics → Timeout → SecurityHeaders → CORS →
//	BodyLimit → ClientIP → Identity → RateLimit → CSRF → RequireRole →
//	Sanitize → handler
//
// RateLimit, CSRF, RequireRole and Sanitize short-circuit with an error
// response; later stages never run once one rejects. Identity never rejects:
// it only attaches the Principal of a valid admin_token/user_token cookie or
// bearer token, so the session key used by RateLimit and CSRF is the
// principal id for signed-in callers and the client fingerprint otherwise.
//
// Safe methods (GET, HEAD, OPTIONS) skip CSRF validation but receive a fresh
// or refreshed token in the X-CSRF-Token response header.
package middleware
