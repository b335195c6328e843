package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/session-auth/internal/domain"
)

var (
	// ErrNotFound is returned when no identity matches the lookup.
	ErrNotFound = errors.New("identity not found")
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// Directory stores identities, their credentials and role memberships.
type Directory interface {
	FindByID(ctx context.Context, id int64) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Create inserts account, assigning it a new ID and creating any missing roles.
	Create(ctx context.Context, account *domain.Account) error
	// AssignRoles adds roles to an existing identity, creating missing roles.
	AssignRoles(ctx context.Context, id int64, roles ...string) error
	// EnsureRoles creates the named roles if they do not exist.
	EnsureRoles(ctx context.Context, roles ...string) error
	Ping(ctx context.Context) error
}
