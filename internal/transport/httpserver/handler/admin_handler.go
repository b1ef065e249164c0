package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/session"
	"cinepulse-catalog/internal/transport/httpserver/dto"
)

// AdminHandler handles operator requests.
type AdminHandler struct {
	registry *session.Registry
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(r *session.Registry, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		registry: r,
		logger:   logger,
	}
}

// RefreshSessions handles POST /api/v1/admin/refresh
func (h *AdminHandler) RefreshSessions(c *fiber.Ctx) error {
	h.logger.Info("manual session refresh triggered")

	n, err := h.registry.RefreshAll(c.UserContext())
	resp := dto.RefreshResponse{Sessions: n}
	if err != nil {
		resp.Error = err.Error()
	}

	return c.JSON(resp)
}

// Sessions handles GET /api/v1/admin/sessions
func (h *AdminHandler) Sessions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"active": h.registry.Len()})
}
