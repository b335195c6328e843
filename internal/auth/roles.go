package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/session-auth/pkg/util"
)

// Authorizer answers whether the current caller holds one of a set of roles.
type Authorizer struct {
	resolver *IdentityResolver
	recorder Recorder
}

// NewAuthorizer builds an authorizer on top of resolver.
func NewAuthorizer(resolver *IdentityResolver) *Authorizer {
	return &Authorizer{resolver: resolver, recorder: resolver.recorder}
}

// Satisfies resolves the caller and reports whether it holds any of required.
// Anonymous callers and an empty required set are always denied.
func (a *Authorizer) Satisfies(ex Exchange, required ...string) bool {
	granted := a.satisfies(ex, required)
	a.recorder.RecordDecision(granted)
	return granted
}

func (a *Authorizer) satisfies(ex Exchange, required []string) bool {
	if len(required) == 0 {
		return false
	}
	identity, ok := a.resolver.Resolve(ex)
	if !ok {
		return false
	}
	return identity.HasAnyRole(required)
}

// RequireRoles gates a route on Satisfies. Denied callers get 403.
func RequireRoles(authz *Authorizer, roles ...string) fiber.Handler {
	required := append([]string(nil), roles...)
	return func(c *fiber.Ctx) error {
		if !authz.Satisfies(NewFiberExchange(c), required...) {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}
