package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/session-auth/internal/auth"
	"github.com/spec-kit/session-auth/internal/domain"
	"github.com/spec-kit/session-auth/internal/repository"
)

// SeedAdmin ensures the ADMIN and USER roles exist and that email is an
// administrator. It is idempotent: an existing account keeps its password and
// only gains the ADMIN role. It reports whether a new account was created.
func SeedAdmin(ctx context.Context, directory repository.Directory, hasher auth.Hasher, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, ErrMissingCredentials
	}

	if err := directory.EnsureRoles(ctx, domain.RoleAdmin, domain.RoleUser); err != nil {
		return false, fmt.Errorf("seed roles: %w", err)
	}

	existing, err := directory.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return false, directory.AssignRoles(ctx, existing.ID, domain.RoleAdmin)
	case !errors.Is(err, repository.ErrNotFound):
		return false, err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return false, err
	}
	account := &domain.Account{
		Identity:     domain.Identity{Email: email, Roles: []string{domain.RoleAdmin}},
		PasswordHash: hash,
	}
	if err := directory.Create(ctx, account); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}
