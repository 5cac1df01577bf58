package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Authenticator is the inbound API of the auth core
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, secret string) (*AuthResult, error)
	LoginWithProvider(ctx context.Context, providerToken string) (*AuthResult, error)
	Authenticate(ctx context.Context, token string) (*IdentityContext, error)
	CurrentUser(ctx context.Context, identity *IdentityContext) (*User, error)
	UpdateProfile(ctx context.Context, identity *IdentityContext, targetID uuid.UUID, update ProfileUpdate) (*AuthResult, error)
	RecentActivity(ctx context.Context, identity *IdentityContext, userID uuid.UUID) ([]*ActionLog, error)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Email() string
	Role() string
}

// PasswordHasher hashes and verifies secrets
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// TokenService issues and verifies session tokens
type TokenService interface {
	Issue(identity Identity) (string, time.Time, error)
	Verify(token string) (AuthClaims, error)
}

// FederatedVerifier validates identity tokens issued by an external provider
type FederatedVerifier interface {
	Verify(ctx context.Context, providerToken string) (*FederatedIdentity, error)
}

// FederatedIdentity holds the provider verified claims
type FederatedIdentity struct {
	Provider string `json:"provider"`
	Subject  string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// UserStore is the credential store used by the authenticator.
// Implementations must enforce email uniqueness atomically and
// report a violation as ErrDuplicateAccount.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println("[ERR] AUTH " + withAttrs(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println("[WRN] AUTH " + withAttrs(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println("[INF] AUTH " + withAttrs(msg, args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println("[DBG] AUTH " + withAttrs(msg, args))
}

// withAttrs renders key/value pairs after msg, slog style
func withAttrs(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(args) {
			fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, "%v", args[i])
	}
	return b.String()
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards everything
func NopLogger() Logger {
	return nopLogger{}
}
