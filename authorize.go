package auth

import "github.com/google/uuid"

// AuthorizeOwnerOrAdmin is the ownership rule for mutations: the
// resource creator or any admin may act. Every handler that checks
// ownership goes through here.
func AuthorizeOwnerOrAdmin(identity *IdentityContext, ownerID uuid.UUID) bool {
	if identity == nil || identity.ID == uuid.Nil {
		return false
	}
	return identity.ID == ownerID || identity.Role == RoleAdmin
}
