package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/session-auth/internal/domain"
	apperrors "github.com/spec-kit/session-auth/pkg/util"
)

const identityKey = "auth_identity"

// AuthMiddleware resolves the session cookie and loads the caller's identity.
type AuthMiddleware struct {
	resolver *IdentityResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver *IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	identity, ok := m.resolver.Resolve(NewFiberExchange(c))
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the identity stored by Handle.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}
