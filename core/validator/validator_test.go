package validator_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/core/validator"
)

type item struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type order struct {
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,phone"`
	Slug  string `json:"slug,omitempty" validate:"omitempty,slug"`
	Items []item `json:"items" validate:"required,min=1,dive"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	ok := order{Email: "a@b.co", Phone: "+49 151 1234", Slug: "m12-connector", Items: []item{{ProductID: 1, Quantity: 2}}}
	require.NoError(t, validator.ValidateStruct(&ok))

	err := validator.ValidateStruct(order{Email: "nope", Slug: "Bad Slug", Items: []item{}})
	require.Error(t, err)
	require.True(t, validator.IsValidationError(err))

	ve := validator.ExtractValidationErrors(err)
	assert.True(t, ve.Has("email"))
	assert.True(t, ve.Has("slug"))
	assert.True(t, ve.Has("items"))

	raw, jerr := json.Marshal(ve)
	require.NoError(t, jerr)
	assert.Contains(t, string(raw), `"field":"items"`)
	assert.NotContains(t, string(raw), "Rule")
}

func TestValidateStruct_NestedPaths(t *testing.T) {
	t.Parallel()

	err := validator.ValidateStruct(&order{Email: "a@b.co", Items: []item{{ProductID: 1, Quantity: 0}}})
	ve := validator.ExtractValidationErrors(err)
	require.Len(t, ve, 1)
	assert.Equal(t, "items[0].quantity", ve[0].Field)
	assert.Equal(t, "is required", ve[0].Message)
}

func TestValidateStruct_InvalidTarget(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, validator.ValidateStruct("x"), validator.ErrInvalidTarget)
	assert.False(t, validator.IsValidationError(fmt.Errorf("other")))
	assert.Nil(t, validator.ExtractValidationErrors(nil))
}

func TestFail(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrap: %w", validator.Fail("items", "must not be empty"))
	assert.True(t, validator.IsValidationError(err))
	assert.Equal(t, "items", validator.ExtractValidationErrors(err)[0].Field)
}
