package sanitizer

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	htmlTagRegex      = regexp.MustCompile(`<[^>]*>`)
	scriptBlockRegex  = regexp.MustCompile(`(?is)<(script|style|iframe|object|embed)\b[^>]*>.*?</\s*(script|style|iframe|object|embed)\s*>`)
	dangerousTagRegex = regexp.MustCompile(`(?i)</?\s*(script|style|iframe|object|embed|link|meta|base|form)\b[^>]*>`)
	eventAttrRegex    = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsURLRegex        = regexp.MustCompile(`(?i)(href|src|action|formaction)\s*=\s*("|')?\s*(javascript|vbscript|data):[^"'\s>]*("|')?`)
	nonDigitPlus      = regexp.MustCompile(`[^\d+]`)
)

// RemoveNullBytes drops NUL characters.
func RemoveNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// PreventXSS keeps markup but removes script-capable content: script/style
// blocks, embedding tags, inline event handlers and javascript: URLs.
func PreventXSS(s string) string {
	s = scriptBlockRegex.ReplaceAllString(s, "")
	s = dangerousTagRegex.ReplaceAllString(s, "")
	s = eventAttrRegex.ReplaceAllString(s, "")
	s = jsURLRegex.ReplaceAllString(s, `$1=""`)
	return s
}

// PreventHeaderInjection removes CR and LF.
func PreventHeaderInjection(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// SanitizeUserInput is the default cleaner for free-form request strings:
// NUL and control characters go, script-capable markup goes, surrounding
// whitespace is trimmed. Newlines and tabs are kept.
func SanitizeUserInput(s string) string {
	s = RemoveNullBytes(s)
	s = RemoveControlChars(s)
	s = PreventXSS(s)
	return strings.TrimSpace(s)
}

// NormalizeWhitespace collapses runs of whitespace and trims.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// NormalizeEmail lowercases and trims an address. Display names are dropped
// when the input parses as an RFC 5322 address.
func NormalizeEmail(s string) string {
	s = strings.TrimSpace(s)
	if addr, err := mail.ParseAddress(s); err == nil {
		s = addr.Address
	}
	return strings.ToLower(s)
}

// NormalizePhone keeps digits and a leading plus.
func NormalizePhone(s string) string {
	s = nonDigitPlus.ReplaceAllString(strings.TrimSpace(s), "")
	if i := strings.LastIndex(s, "+"); i > 0 {
		s = strings.ReplaceAll(s, "+", "")
	}
	return s
}

// NormalizeURL trims, adds an https scheme when missing and lowercases the
// host. Non-http(s) schemes yield "".
func NormalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// SanitizeFilename keeps a safe base name for stored objects.
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '_'
		default:
			return -1
		}
	}, s)
	s = strings.TrimLeft(s, ".")
	return MaxLength(s, 255)
}
