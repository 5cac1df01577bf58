package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	TextCodeValidation          = "VALIDATION_ERROR"
	TextCodeDuplicateAccount    = "DUPLICATE_ACCOUNT"
	TextCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	TextCodeMissingCredential   = "MISSING_CREDENTIAL"
	TextCodeInvalidToken        = "INVALID_TOKEN"
	TextCodeUnknownIdentity     = "UNKNOWN_IDENTITY"
	TextCodeFederatedAuthFailed = "FEDERATED_AUTH_FAILED"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeUserNotFound        = "USER_NOT_FOUND"
)

// ErrValidation is the base for malformed or missing input
var ErrValidation = goerrors.New("invalid input", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateAccount is returned when the email is already registered
var ErrDuplicateAccount = goerrors.New("account already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is returned for any email/password mismatch,
// including unknown emails.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingCredential is returned when a protected route gets no token
var ErrMissingCredential = goerrors.New("missing credential", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidToken covers bad signatures, corrupt tokens and expired tokens
var ErrInvalidToken = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnknownIdentity is returned when a valid token names a user that no longer exists
var ErrUnknownIdentity = goerrors.New("unknown identity", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnknownIdentity).
	WithCode(goerrors.CodeUnauthorized)

// ErrFederatedAuthFailed is returned for any identity provider verification failure
var ErrFederatedAuthFailed = goerrors.New("federated authentication failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeFederatedAuthFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when the identity may not act on a resource
var ErrForbidden = goerrors.New("forbidden", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrUserNotFound is returned when a target user does not exist
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString is returned when hashing an empty secret
var ErrNoEmptyString = goerrors.New("secret must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// NewValidationError wraps field errors produced by ozzo-validation
func NewValidationError(message string, err error) *goerrors.Error {
	if err == nil {
		return goerrors.New(message, goerrors.CategoryValidation).
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"fields": map[string]string{}})
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fieldErrors(err)})
}

// IsValidationError reports whether err belongs to the validation category
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryValidation
	}
	return false
}

// IsKind reports whether err is, or wraps, an error with the text code
// of kind
func IsKind(err error, kind *goerrors.Error) bool {
	if err == nil || kind == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == kind.TextCode
	}
	return false
}

// IsAuthenticationError reports whether err is one of the request
// authentication failures a client should treat as "log in again".
func IsAuthenticationError(err error) bool {
	return IsKind(err, ErrMissingCredential) ||
		IsKind(err, ErrInvalidToken) ||
		IsKind(err, ErrUnknownIdentity)
}

// IsUniqueViolation checks driver errors for a unique constraint failure
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}

	var errs validation.Errors
	if errors.As(err, &errs) {
		for field, fieldErr := range errs {
			if fieldErr != nil {
				out[field] = fieldErr.Error()
			}
		}
		return out
	}

	out["input"] = err.Error()
	return out
}
