package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/core/binder"
	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/sanitizer"
	"github.com/dmitrymomot/storefront/core/validator"
	"github.com/dmitrymomot/storefront/integration/database/pg"
	"github.com/dmitrymomot/storefront/internal/store"
	"github.com/dmitrymomot/storefront/pkg/retry"
)

var (
	ErrValidation         = response.NewHTTPError(http.StatusBadRequest, "validation_failed", "Validation failed")
	ErrInvalidBody        = response.NewHTTPError(http.StatusBadRequest, "invalid_body", "Invalid request body")
	ErrInvalidID          = response.NewHTTPError(http.StatusBadRequest, "invalid_id", "Invalid id")
	ErrStaleVersion       = response.NewHTTPError(http.StatusConflict, "version_conflict", "The record was modified by someone else, reload it and try again")
	ErrDuplicate          = response.NewHTTPError(http.StatusConflict, "duplicate", "A record with the same unique value already exists")
	ErrInvalidCredentials = response.NewHTTPError(http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	ErrDatabaseDown       = response.NewHTTPError(http.StatusServiceUnavailable, "database_unavailable", "Database unavailable, please try again later")
	ErrDownloadsDisabled  = response.NewHTTPError(http.StatusServiceUnavailable, "downloads_unavailable", "Downloads are not available")
)

// bind decodes a JSON body into v, applies its sanitize tags and validates
// it. Decoding problems are 400 invalid_body (413/415 where they apply);
// rule failures are 400 "Validation failed" with field details.
func bind(ctx handler.Context, v any) error {
	if err := binder.Bind(ctx.Request(), v, binder.JSON()); err != nil {
		switch {
		case errors.Is(err, binder.ErrBodyTooLarge):
			return response.ErrRequestEntityTooLarge.WithError(err)
		case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
			return response.ErrUnsupportedMediaType.WithMessage("Expected an application/json body").WithError(err)
		}
		return ErrInvalidBody.WithError(err)
	}
	if err := sanitizer.SanitizeStruct(v); err != nil {
		return err
	}
	return validate(v)
}

// bindQuery binds and validates query parameters.
func bindQuery(ctx handler.Context, v any) error {
	if err := binder.Bind(ctx.Request(), v, binder.Query()); err != nil {
		return ErrValidation.WithDetails(validator.Fail("query", "malformed query parameters")).WithError(err)
	}
	return validate(v)
}

func validate(v any) error {
	if err := validator.ValidateStruct(v); err != nil {
		if ve := validator.ExtractValidationErrors(err); ve != nil {
			return ErrValidation.WithDetails(ve)
		}
		return err
	}
	return nil
}

// invalid reports a single failed field.
func invalid(field, message string) error {
	return ErrValidation.WithDetails(validator.Fail(field, message))
}

// storeError maps repository failures onto the error envelope. Anything not
// recognised stays a 500.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return response.ErrNotFound.WithError(err)
	case errors.Is(err, store.ErrVersionMismatch):
		return ErrStaleVersion.WithError(err)
	case errors.Is(err, store.ErrDuplicate):
		return ErrDuplicate.WithError(err)
	case errors.Is(err, store.ErrUnknownProduct):
		return invalid("items", "contains a product that does not exist or is not available")
	case errors.Is(err, store.ErrInvalidReference):
		return response.ErrBadRequest.WithMessage("Referenced record does not exist").WithError(err)
	case pg.Classify(err) == retry.FaultConnectivity, retry.IsConnectivityError(err):
		return ErrDatabaseDown.WithError(err)
	case pg.Classify(err) == retry.FaultData:
		return response.ErrBadRequest.WithMessage("A value is out of range or malformed").WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return response.ErrServiceUnavailable.WithMessage("request timed out").WithError(err)
	}
	return err
}

func paramID(ctx handler.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, ErrInvalidID.WithError(err)
	}
	return id, nil
}
