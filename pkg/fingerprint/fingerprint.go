package fingerprint

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dmitrymomot/storefront/pkg/clientip"
)

const (
	// MaxUserAgentLength is the number of runes of the user agent kept in anonymous keys.
	MaxUserAgentLength = 64

	identityPrefix  = "id:"
	anonymousPrefix = "anon:"
)

// SessionKey returns the key for identity when it is set, otherwise the anonymous key for r.
func SessionKey(r *http.Request, identity string) string {
	if identity != "" {
		return identityPrefix + identity
	}
	return Anonymous(r)
}

// Anonymous returns "anon:<client ip>|<user agent prefix>".
func Anonymous(r *http.Request) string {
	var b strings.Builder
	b.WriteString(anonymousPrefix)
	b.WriteString(clientip.GetIP(r))
	b.WriteByte('|')
	b.WriteString(truncate(r.UserAgent(), MaxUserAgentLength))
	return b.String()
}

// IsAnonymous reports whether key was derived without an identity.
func IsAnonymous(key string) bool {
	return strings.HasPrefix(key, anonymousPrefix)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
