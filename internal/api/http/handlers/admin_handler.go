package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/session-auth/internal/observability"
)

// AdminHandler serves routes reserved for administrators.
type AdminHandler struct {
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{metrics: metrics}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	data := fiber.Map{"title": "Admin Dashboard"}
	if h.metrics != nil {
		data["metrics"] = h.metrics.Snapshot()
	}
	return c.JSON(fiber.Map{"data": data})
}
