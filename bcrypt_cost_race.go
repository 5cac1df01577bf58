//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// race instrumented hashing is slow, fall back to the library default
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
