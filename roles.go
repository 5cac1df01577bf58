package auth

// UserRole is the user's role
type UserRole string

const (
	// RoleUser is the default role for registered members
	RoleUser UserRole = "user"
	// RoleExpert can publish threat records
	RoleExpert UserRole = "expert"
	// RoleAdmin can act on any resource
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleExpert, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r UserRole) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleExpert,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
