package sanitizer

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrNotStructPointer = errors.New("sanitizer: must pass a pointer to struct")
	ErrInvalidTag       = errors.New("sanitizer: invalid tag")
	ErrInvalidJSON      = errors.New("sanitizer: invalid JSON")
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func(string) string{
		"trim":        Trim,
		"lower":       ToLower,
		"upper":       ToUpper,
		"title":       ToTitle,
		"trim_lower":  TrimToLower,
		"single_line": SingleLine,
		"strip_html":  StripHTML,
		"digits":      KeepDigits,
		"email":       NormalizeEmail,
		"phone":       NormalizePhone,
		"url":         NormalizeURL,
		"filename":    SanitizeFilename,
		"whitespace":  NormalizeWhitespace,
		"xss":         PreventXSS,
		"no_null":     RemoveNullBytes,
		"no_control":  RemoveControlChars,
		"user_input":  SanitizeUserInput,
		"header":      PreventHeaderInjection,
		"slug":        Slugify,
		"sku":         SKU,

		"name": func(s string) string {
			return RemoveExtraWhitespace(StripHTML(s))
		},
		"text": func(s string) string {
			return RemoveExtraWhitespace(SanitizeUserInput(s))
		},
	}
)

// RegisterSanitizer adds or replaces a named sanitizer usable in tags.
func RegisterSanitizer(name string, fn func(string) string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// SanitizeStruct applies the comma-separated sanitizers named in each string
// field's `sanitize` tag. Nested structs are always walked; "max:N" truncates.
func SanitizeStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return ErrNotStructPointer
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return ErrNotStructPointer
	}

	return sanitizeStructRecursive(rv)
}

func sanitizeStructRecursive(rv reflect.Value) error {
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}

		structField := rt.Field(i)
		tag := structField.Tag.Get("sanitize")

		if tag == "-" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if tag == "" {
				continue
			}
			value := field.String()
			sanitized, err := applySanitizers(value, tag)
			if err != nil {
				return err
			}
			field.SetString(sanitized)

		case reflect.Pointer:
			if !field.IsNil() {
				elem := field.Elem()
				if elem.Kind() == reflect.String {
					if tag != "" {
						value := elem.String()
						sanitized, err := applySanitizers(value, tag)
						if err != nil {
							return err
						}
						elem.SetString(sanitized)
					}
				} else if elem.Kind() == reflect.Struct {
					if err := sanitizeStructRecursive(elem); err != nil {
						return err
					}
				}
			}

		case reflect.Struct:
			if err := sanitizeStructRecursive(field); err != nil {
				return err
			}

		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.Struct {
				for j := 0; j < field.Len(); j++ {
					if err := sanitizeStructRecursive(field.Index(j)); err != nil {
						return err
					}
				}
				continue
			}
			if tag != "" && field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					value := elem.String()
					sanitized, err := applySanitizers(value, tag)
					if err != nil {
						return err
					}
					elem.SetString(sanitized)
				}
			}
		}
	}

	return nil
}

func applySanitizers(value string, tag string) (string, error) {
	sanitizers := strings.Split(tag, ",")
	result := value

	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, sanitizerName := range sanitizers {
		sanitizerName = strings.TrimSpace(sanitizerName)
		if sanitizerName == "" {
			continue
		}

		if n, ok := strings.CutPrefix(sanitizerName, "max:"); ok {
			maxLen, err := strconv.Atoi(n)
			if err != nil || maxLen <= 0 {
				return "", fmt.Errorf("%w: %q", ErrInvalidTag, sanitizerName)
			}
			result = MaxLength(result, maxLen)
			continue
		}

		fn, ok := registry[sanitizerName]
		if !ok {
			return "", fmt.Errorf("%w: unknown sanitizer %q", ErrInvalidTag, sanitizerName)
		}
		result = fn(result)
	}

	return result, nil
}
