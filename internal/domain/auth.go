package domain

import "time"

// TokenClaims is the data carried inside a session token.
type TokenClaims struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is a signed session token and the claims it carries.
type IssuedToken struct {
	Value  string
	Claims TokenClaims
}
