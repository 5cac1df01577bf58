package auth_test

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-cyberconnect"
)

func TestIsKind(t *testing.T) {
	assert.True(t, auth.IsKind(auth.ErrForbidden, auth.ErrForbidden))
	assert.False(t, auth.IsKind(auth.ErrForbidden, auth.ErrUserNotFound))
	assert.False(t, auth.IsKind(nil, auth.ErrForbidden))
	assert.False(t, auth.IsKind(errors.New("plain"), auth.ErrForbidden))

	wrapped := goerrors.New("duplicate", goerrors.CategoryConflict).WithTextCode(auth.TextCodeDuplicateAccount)
	assert.True(t, auth.IsKind(wrapped, auth.ErrDuplicateAccount))
}

func TestIsAuthenticationError(t *testing.T) {
	assert.True(t, auth.IsAuthenticationError(auth.ErrMissingCredential))
	assert.True(t, auth.IsAuthenticationError(auth.ErrInvalidToken))
	assert.True(t, auth.IsAuthenticationError(auth.ErrUnknownIdentity))

	assert.False(t, auth.IsAuthenticationError(auth.ErrInvalidCredentials))
	assert.False(t, auth.IsAuthenticationError(auth.ErrForbidden))
	assert.False(t, auth.IsAuthenticationError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, auth.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, auth.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, auth.IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
	assert.False(t, auth.IsUniqueViolation(errors.New("disk I/O error")))
	assert.False(t, auth.IsUniqueViolation(nil))
}

func TestNewValidationError(t *testing.T) {
	err := auth.NewValidationError("invalid registration", validation.Errors{
		"email": errors.New("must be a valid email address"),
		"name":  nil,
	})

	assert.True(t, auth.IsValidationError(err))
	assert.Equal(t, auth.TextCodeValidation, err.TextCode)

	fields, ok := err.Metadata["fields"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"email": "must be a valid email address"}, fields)

	plain := auth.NewValidationError("bad body", errors.New("unexpected EOF"))
	fields, ok = plain.Metadata["fields"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "unexpected EOF", fields["input"])

	assert.False(t, auth.IsValidationError(errors.New("plain")))
	assert.False(t, auth.IsValidationError(auth.ErrForbidden))
}
