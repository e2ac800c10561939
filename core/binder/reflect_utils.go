package binder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/dmitrymomot/storefront/core/sanitizer"
)

// bindToStruct fills the fields of the struct behind v from values. The
// parameter name comes from tagName, or the lowercased field name when the
// tag is absent; "-" skips the field.
func bindToStruct(v any, tagName string, values map[string][]string, bindErr error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a non-nil pointer to struct", bindErr)
	}
	rv = rv.Elem()

	for _, sf := range reflect.VisibleFields(rv.Type()) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name := strings.ToLower(sf.Name)
		if tag, ok := sf.Tag.Lookup(tagName); ok {
			if tag == "-" {
				continue
			}
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
		}

		raw := values[name]
		if len(raw) == 0 {
			continue
		}
		if err := assign(rv.FieldByIndex(sf.Index), raw); err != nil {
			return fmt.Errorf("%w: %s: %v", bindErr, name, err)
		}
	}
	return nil
}

// assign parses raw into field. Pointers are allocated, slices take every
// value with comma-separated lists expanded, scalars take the first value.
func assign(field reflect.Value, raw []string) error {
	switch field.Kind() {
	case reflect.Pointer:
		ptr := reflect.New(field.Type().Elem())
		if err := assign(ptr.Elem(), raw); err != nil {
			return err
		}
		field.Set(ptr)
		return nil

	case reflect.Slice:
		var parts []string
		for _, v := range raw {
			parts = append(parts, strings.Split(v, ",")...)
		}
		out := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := assign(out.Index(i), []string{strings.TrimSpace(p)}); err != nil {
				return err
			}
		}
		field.Set(out)
		return nil
	}

	s := raw[0]
	switch field.Kind() {
	case reflect.String:
		field.SetString(cleanParam(s))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", s)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := parseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// parseBool accepts strconv forms plus the checkbox spellings on/off and
// yes/no.
func parseBool(s string) (bool, error) {
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// cleanParam keeps a query value on one line and free of control characters.
func cleanParam(s string) string {
	return sanitizer.RemoveControlChars(sanitizer.PreventHeaderInjection(sanitizer.RemoveNullBytes(s)))
}
