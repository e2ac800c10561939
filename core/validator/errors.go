package validator

import (
	"errors"
	"strings"
)

// FieldError describes one failed rule. It marshals to {"field","message"}.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"-"`
	Message string `json:"message"`
}

// ValidationErrors is the list of field failures returned by ValidateStruct.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field failed any rule.
func (v ValidationErrors) Has(field string) bool {
	for _, fe := range v {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// ExtractValidationErrors returns the field failures in err, or nil.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// Fail builds ValidationErrors by hand for checks that tags cannot express.
func Fail(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Rule: "custom", Message: message}}
}
