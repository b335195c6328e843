package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/session-auth/internal/auth"
	"github.com/spec-kit/session-auth/internal/domain"
	"github.com/spec-kit/session-auth/internal/repository"
)

func TestSeedAdmin_Idempotent(t *testing.T) {
	ctx := context.Background()
	dir := repository.NewMemoryDirectory()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	created, err := SeedAdmin(ctx, dir, hasher, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = SeedAdmin(ctx, dir, hasher, "admin@example.com", "changed")
	require.NoError(t, err)
	assert.False(t, created)

	account, err := dir.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleAdmin}, account.Roles)
	assert.True(t, hasher.Compare("admin123", account.PasswordHash), "existing password is kept")
}

func TestSeedAdmin_PromotesExistingAccount(t *testing.T) {
	ctx := context.Background()
	dir := repository.NewMemoryDirectory()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	require.NoError(t, dir.Create(ctx, &domain.Account{
		Identity:     domain.Identity{Email: "ops@example.com", Roles: []string{domain.RoleUser}},
		PasswordHash: "h",
	}))

	_, err := SeedAdmin(ctx, dir, hasher, "ops@example.com", "x")
	require.NoError(t, err)

	account, err := dir.FindByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleAdmin, domain.RoleUser}, account.Roles)
}

func TestSeedAdmin_RequiresCredentials(t *testing.T) {
	_, err := SeedAdmin(context.Background(), repository.NewMemoryDirectory(), auth.NewBcryptHasher(bcrypt.MinCost), "", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
