package response_test

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulsirensomatics/portal/internal/http/response"
)

func TestErrorEnvelope(t *testing.T) {
	data, err := json.Marshal(response.Error("Admin access required"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"error": {"message": "Admin access required"}}`, string(data))
}

func TestOKWithMessage(t *testing.T) {
	resp := response.OKWithMessage("booking", map[string]int{"id": 7}, "Booking created successfully")

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"booking": {"id": 7}, "message": "Booking created successfully"}`, string(data))
}

func TestValidationError(t *testing.T) {
	type req struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required"`
	}

	errs := validator.New().Struct(req{Email: "not-an-email"})
	require.Error(t, errs)

	resp := response.ValidationError(errs.(validator.ValidationErrors))
	assert.Contains(t, resp.Error.Message, "field Email must be a valid email")
	assert.Contains(t, resp.Error.Message, "field Password is a required field")
}
