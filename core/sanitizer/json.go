package sanitizer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value returns v with fn applied to every string inside it, walking the
// map[string]any and []any shapes produced by encoding/json. Keys are kept.
func Value(v any, fn func(string) string) any {
	return walk(v, fn, nil)
}

func walk(v any, fn func(string) string, preserve map[string]bool) any {
	switch t := v.(type) {
	case string:
		return fn(t)
	case map[string]any:
		for k, e := range t {
			if !preserve[k] {
				t[k] = walk(e, fn, preserve)
			}
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = walk(e, fn, preserve)
		}
		return t
	default:
		return v
	}
}

// JSON cleans every string value in a JSON document with SanitizeUserInput.
// Numbers are decoded as json.Number so they round-trip unchanged.
func JSON(data []byte) ([]byte, error) {
	return JSONWith(data, SanitizeUserInput)
}

// JSONWith is JSON with a custom string cleaner.
func JSONWith(data []byte, fn func(string) string) ([]byte, error) {
	return JSONExcept(data, fn)
}

// JSONExcept is JSONWith that leaves the values of the named object keys
// untouched at any depth, e.g. passwords.
func JSONExcept(data []byte, fn func(string) string, keys ...string) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return data, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	preserve := make(map[string]bool, len(keys))
	for _, k := range keys {
		preserve[k] = true
	}
	if err := enc.Encode(walk(doc, fn, preserve)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
