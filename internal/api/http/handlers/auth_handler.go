package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/session-auth/internal/api/dto"
	"github.com/spec-kit/session-auth/internal/auth"
	"github.com/spec-kit/session-auth/internal/domain"
	"github.com/spec-kit/session-auth/internal/repository"
	"github.com/spec-kit/session-auth/internal/service"
	apperrors "github.com/spec-kit/session-auth/pkg/util"
)

// AuthHandler exposes the session endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	resolver *auth.IdentityResolver
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, resolver *auth.IdentityResolver) *AuthHandler {
	return &AuthHandler{auth: authService, resolver: resolver}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	identity, err := h.auth.Register(c.UserContext(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, repository.ErrEmailTaken):
		return apperrors.NewConflict("email already in use", nil)
	case err != nil:
		return apperrors.NewInternalError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewIdentityResponse(*identity),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	identity, token, err := h.auth.Login(c.UserContext(), auth.NewFiberExchange(c), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("invalid credentials")
	case err != nil:
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":    dto.NewIdentityResponse(*identity),
			"session": dto.SessionResponse{ExpiresAt: token.Claims.ExpiresAt},
		},
	})
}

// Logout handles POST /auth/logout. It succeeds with or without a session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	ex := auth.NewFiberExchange(c)
	var current *domain.Identity
	if identity, ok := h.resolver.Resolve(ex); ok {
		current = &identity
	}
	h.auth.Logout(c.UserContext(), ex, current)
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /auth/me; AuthMiddleware has already resolved the caller.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewIdentityResponse(identity)})
}
