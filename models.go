package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk" json:"_id"`
	Name          string     `bun:"name,notnull" json:"name"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          UserRole   `bun:"user_role,notnull" json:"role"`
	FederatedID   string     `bun:"federated_id,nullzero" json:"federatedId,omitempty"`
	ProfilePic    string     `bun:"profile_pic,notnull" json:"profilePic"`
	CreatedAt     time.Time  `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

// ActionLog is a single audit entry for a user
type ActionLog struct {
	bun.BaseModel `bun:"table:action_logs,alias:alog"`
	ID            uuid.UUID `bun:"id,pk" json:"_id"`
	UserID        uuid.UUID `bun:"user_id,notnull" json:"user"`
	Action        string    `bun:"action,notnull" json:"action"`
	Details       string    `bun:"details,notnull" json:"details"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// NormalizeEmail is applied to every email before it reaches the store.
// Lookups and uniqueness are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	record.Email = NormalizeEmail(record.Email)
}
