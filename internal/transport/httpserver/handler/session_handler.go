package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/session"
	"cinepulse-catalog/internal/transport/httpserver/dto"
	"cinepulse-catalog/internal/validator"
)

// SessionHandler handles live browse sessions.
type SessionHandler struct {
	registry  *session.Registry
	validator *validator.Validator
	logger    *zap.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(r *session.Registry, v *validator.Validator, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		registry:  r,
		validator: v,
		logger:    logger,
	}
}

// Open handles POST /api/v1/sessions
// The optional body carries the initial kind, search term and layout.
func (h *SessionHandler) Open(c *fiber.Ctx) error {
	var req dto.ViewRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body", "INVALID_BODY")
		}
	}

	if err := h.validator.Validate(&req); err != nil {
		return writeError(c, h.logger, err)
	}

	s, snap := h.registry.Open(c.UserContext(), req.ToViewState())

	return c.Status(fiber.StatusCreated).JSON(dto.FromSession(s, snap))
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	s, err := h.registry.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromSession(s, s.Controller.Snapshot()))
}

// Update handles PATCH /api/v1/sessions/:id
func (h *SessionHandler) Update(c *fiber.Ctx) error {
	var req dto.SessionPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", "INVALID_BODY")
	}

	if err := h.validator.Validate(&req); err != nil {
		return writeError(c, h.logger, err)
	}

	snap, err := h.registry.Update(c.UserContext(), c.Params("id"), req.ToPatch())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromSnapshot(snap))
}

// Refresh handles POST /api/v1/sessions/:id/refresh
// A failed fetch is reported inside the view, like a failed initial load.
func (h *SessionHandler) Refresh(c *fiber.Ctx) error {
	snap, err := h.registry.Refresh(c.UserContext(), c.Params("id"))
	if err != nil && snap.Err == nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromSnapshot(snap))
}

// Close handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) Close(c *fiber.Ctx) error {
	if err := h.registry.Close(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
