package google

import (
	"bytes"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-cyberconnect"
)

var validIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// flexBool decodes Google's email_verified, which is a bool in ID
// tokens and a string in tokeninfo responses.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(string(data))
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	AuthorizedParty string   `json:"azp,omitempty"`
	Email           string   `json:"email"`
	EmailVerified   flexBool `json:"email_verified"`
	Name            string   `json:"name"`
	Picture         string   `json:"picture"`
}

func validIssuer(iss string) bool {
	return slices.Contains(validIssuers, strings.TrimSpace(iss))
}

// checkIdentity applies the checks shared by both verifiers
func checkIdentity(op, issuer, subject, email string, verified bool) error {
	if !validIssuer(issuer) {
		return verifyError(op, "invalid_issuer", issuer, nil)
	}
	if strings.TrimSpace(subject) == "" {
		return verifyError(op, "missing_subject", "", nil)
	}
	if strings.TrimSpace(email) == "" {
		return verifyError(op, "missing_email", "", nil)
	}
	if !verified {
		return verifyError(op, "email_not_verified", "", nil)
	}
	return nil
}

func toIdentity(subject, email, name, picture string) *auth.FederatedIdentity {
	return &auth.FederatedIdentity{
		Provider: ProviderName,
		Subject:  subject,
		Email:    auth.NormalizeEmail(email),
		Name:     strings.TrimSpace(name),
		Picture:  picture,
	}
}

func unixSeconds(raw string) (time.Time, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	return time.Unix(n, 0), true
}
