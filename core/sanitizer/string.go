package sanitizer

import (
	"html"
	"strings"
	"unicode"
)

func Trim(s string) string    { return strings.TrimSpace(s) }
func ToLower(s string) string { return strings.ToLower(s) }
func ToUpper(s string) string { return strings.ToUpper(s) }

// TrimToLower trims and lowercases, the usual form for lookup keys.
func TrimToLower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ToTitle capitalises each space-separated word and lowercases the rest.
func ToTitle(s string) string {
	prev := ' '
	return strings.Map(func(r rune) rune {
		defer func() { prev = r }()
		if unicode.IsSpace(prev) {
			return unicode.ToUpper(r)
		}
		return unicode.ToLower(r)
	}, s)
}

// Slugify lowercases s and joins its letter and digit runs with single
// dashes, e.g. "M12 Relay (4-pin)" becomes "m12-relay-4-pin".
func Slugify(s string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		b.WriteString(word)
	}
	return b.String()
}

// SKU trims and uppercases a part number and drops inner whitespace.
func SKU(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// MaxLength cuts s to at most n runes.
func MaxLength(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// RemoveExtraWhitespace collapses whitespace runs to one space and trims.
func RemoveExtraWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RemoveControlChars drops control characters except newline, CR and tab.
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// StripHTML removes tags and decodes entities.
func StripHTML(s string) string {
	return html.UnescapeString(htmlTagRegex.ReplaceAllString(s, ""))
}

// KeepDigits drops everything but digits.
func KeepDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// SingleLine joins lines with spaces, for names and subjects.
func SingleLine(s string) string {
	return RemoveExtraWhitespace(s)
}
