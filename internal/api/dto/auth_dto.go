package dto

import (
	"time"

	"github.com/spec-kit/session-auth/internal/domain"
)

// CredentialsRequest payload for register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityResponse is the public view of an identity.
type IdentityResponse struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// SessionResponse describes the session set by a login.
type SessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// NewIdentityResponse maps a domain identity.
func NewIdentityResponse(identity domain.Identity) IdentityResponse {
	roles := identity.Roles
	if roles == nil {
		roles = []string{}
	}
	return IdentityResponse{ID: identity.ID, Email: identity.Email, Roles: roles}
}
