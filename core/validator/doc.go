// Package validator validates request structs with go-playground/validator
// and reports failures by JSON field name:
//
//	type OrderRequest struct {
//		Email string      `json:"email" validate:"required,email"`
//		Items []OrderItem `json:"items" validate:"required,min=1,dive"`
//	}
//
//	if err := validator.ValidateStruct(&req); err != nil {
//		details := validator.ExtractValidationErrors(err) // [{field, message}]
//	}
//
// Extra rules: slug, phone.
package validator
