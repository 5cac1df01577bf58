package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-cyberconnect"
)

func TestAuthorizeOwnerOrAdmin(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	tests := []struct {
		name     string
		identity *auth.IdentityContext
		ownerID  uuid.UUID
		want     bool
	}{
		{name: "owner user", identity: &auth.IdentityContext{ID: owner, Role: auth.RoleUser}, ownerID: owner, want: true},
		{name: "owner expert", identity: &auth.IdentityContext{ID: owner, Role: auth.RoleExpert}, ownerID: owner, want: true},
		{name: "owner admin", identity: &auth.IdentityContext{ID: owner, Role: auth.RoleAdmin}, ownerID: owner, want: true},
		{name: "other user", identity: &auth.IdentityContext{ID: other, Role: auth.RoleUser}, ownerID: owner, want: false},
		{name: "other expert", identity: &auth.IdentityContext{ID: other, Role: auth.RoleExpert}, ownerID: owner, want: false},
		{name: "other admin", identity: &auth.IdentityContext{ID: other, Role: auth.RoleAdmin}, ownerID: owner, want: true},
		{name: "unknown role", identity: &auth.IdentityContext{ID: other, Role: auth.UserRole("root")}, ownerID: owner, want: false},
		{name: "nil identity", identity: nil, ownerID: owner, want: false},
		{name: "zero identity id", identity: &auth.IdentityContext{Role: auth.RoleUser}, ownerID: uuid.Nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.AuthorizeOwnerOrAdmin(tt.identity, tt.ownerID))
		})
	}
}
