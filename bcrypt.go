package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher implements PasswordHasher with a tunable cost
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, clamped to the
// range bcrypt accepts. Zero selects the default cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost == 0:
		cost = passwordHashCost()
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work factor
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash will generate a salted password hash
func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrNoEmptyString
	}

	out, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	return string(out), err
}

// Verify reports whether secret produced hash. Malformed hashes
// are a mismatch.
func (h *BcryptHasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// RandomSecret returns a throwaway password for accounts that only
// authenticate through a provider.
func RandomSecret() string {
	return uuid.New().String()
}
