package domain

import (
	"slices"
	"time"
)

// Well-known role names seeded into every directory.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Identity is the authenticated caller as currently known by the directory.
type Identity struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// HasAnyRole reports whether the identity holds at least one of required.
// An empty required set never matches.
func (i Identity) HasAnyRole(required []string) bool {
	for _, role := range required {
		if slices.Contains(i.Roles, role) {
			return true
		}
	}
	return false
}

// Account is an identity together with its stored credential.
type Account struct {
	Identity
	PasswordHash string
	CreatedAt    time.Time
}
