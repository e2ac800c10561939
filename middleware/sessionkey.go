package middleware

import (
	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/pkg/fingerprint"
)

// SessionKey is the key CSRF tokens and rate-limit counters are stored
// under: the principal id when authenticated, otherwise client IP plus a
// user-agent prefix.
func SessionKey(ctx handler.Context) string {
	var identity string
	if p, ok := GetPrincipal(ctx); ok {
		identity = p.ID
	}
	return fingerprint.SessionKey(ctx.Request(), identity)
}
