package auth

import (
	"context"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// IdentityLocalsKey is the router locals key holding the IdentityContext
const IdentityLocalsKey = "identity"

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// IdentityContext is the authenticated caller for the duration of a request.
// It is built from the verified token and the stored user record only.
type IdentityContext struct {
	ID   uuid.UUID `json:"id"`
	Role UserRole  `json:"role"`
}

// IsAdmin reports whether the caller holds the admin role
func (i *IdentityContext) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// HasRole reports whether the caller holds any of roles
func (i *IdentityContext) HasRole(roles ...UserRole) bool {
	if i == nil {
		return false
	}
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}

// WithIdentityContext sets the IdentityContext in the given context
func WithIdentityContext(ctx context.Context, identity *IdentityContext) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the IdentityContext in ctx
func IdentityFromContext(ctx context.Context) (*IdentityContext, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(identityCtxKey).(*IdentityContext)
	return raw, ok && raw != nil
}

// IdentityFromRouter returns the IdentityContext stored by the auth middleware
func IdentityFromRouter(c router.Context) (*IdentityContext, bool) {
	if c == nil {
		return nil, false
	}
	raw, ok := c.Locals(IdentityLocalsKey).(*IdentityContext)
	if ok && raw != nil {
		return raw, true
	}
	return IdentityFromContext(c.Context())
}

func setRouterIdentity(c router.Context, identity *IdentityContext) {
	c.Locals(IdentityLocalsKey, identity)
	c.SetContext(WithIdentityContext(c.Context(), identity))
}
