package validator

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customerForm struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,min=10"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Method   string `json:"method" validate:"omitempty,oneof=cash card mobile"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(customerForm{Name: "Alice", Email: "alice@example.com", Phone: "555-123-4567"})
	assert.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(customerForm{Email: "nope", Phone: "123", Quantity: -1, Method: "cheque"})
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 10 characters", fields["phone"])
	assert.Equal(t, "must be greater than or equal to 0", fields["quantity"])
	assert.Equal(t, "must be one of: cash card mobile", fields["method"])
	assert.Contains(t, valErr.Error(), "field 'name' is required")
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Bob"}`))
	var form customerForm
	require.NoError(t, DecodeAndValidate(r, &form))
	assert.Equal(t, "Bob", form.Name)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	var form customerForm
	err := DecodeAndValidate(r, &form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("alice@example.com", "email"))
	assert.Error(t, Var("alice@", "email"))
	assert.NoError(t, Var("https://placehold.co/100x100.png", "url"))
	assert.Error(t, Var("not a url", "url"))
}
