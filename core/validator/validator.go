package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *playground.Validate

	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ()\-.]{6,20}$`)
)

// ErrInvalidTarget is returned when ValidateStruct gets something other than a struct.
var ErrInvalidTarget = errors.New("validator: target must be a struct or pointer to struct")

func get() *playground.Validate {
	once.Do(func() {
		v := playground.New()
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("slug", func(fl playground.FieldLevel) bool {
			return slugRegex.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("phone", func(fl playground.FieldLevel) bool {
			return phoneRegex.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// jsonFieldName reports fields by their JSON name so error details match the
// request body the client sent.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// RegisterValidator adds a custom field rule usable in `validate` tags.
func RegisterValidator(tag string, fn func(fl playground.FieldLevel) bool) error {
	return get().RegisterValidation(tag, fn)
}

// RegisterStructValidation adds a cross-field rule for the given struct types.
func RegisterStructValidation(fn playground.StructLevelFunc, types ...any) {
	get().RegisterStructValidation(fn, types...)
}

// ValidateStruct runs the `validate` tags of v. Failures are returned as
// ValidationErrors.
func ValidateStruct(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return ErrInvalidTarget
	}

	err := get().Struct(v)
	if err == nil {
		return nil
	}

	var ves playground.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validator: %w", err)
	}

	out := make(ValidationErrors, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from the namespace: items[0].quantity.
func fieldPath(fe playground.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "slug":
		return "must contain lowercase letters, digits and single dashes"
	case "phone":
		return "must be a valid phone number"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}
