package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/artvinci/artvinci-go/pkg/errors"
)

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestStructPassesValidPayload(t *testing.T) {
	err := Struct(loginPayload{Email: "ada@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	err := Struct(loginPayload{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok, "expected per-field details, got %T", typed.Details())
	require.Equal(t, "must be a valid email", details["email"])
	require.Equal(t, "must be at least 8", details["password"])
}
