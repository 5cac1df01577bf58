package google

import (
	"fmt"
	"strings"
)

// VerifyError describes why a Google identity token was rejected.
// Callers outside this package only see it in logs.
type VerifyError struct {
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
}

func (e *VerifyError) Error() string {
	if e == nil {
		return ""
	}

	parts := []string{"google", e.Operation}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	msg := strings.Join(parts, ": ")
	if e.Description != "" {
		msg = msg + ": " + e.Description
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *VerifyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func verifyError(operation, code, description string, err error) *VerifyError {
	return &VerifyError{
		Operation:   operation,
		Code:        code,
		Description: description,
		Err:         err,
	}
}
