package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/service"
	"cinepulse-catalog/internal/transport/httpserver/dto"
	"cinepulse-catalog/internal/validator"
)

// UploadHandler handles new catalog items.
type UploadHandler struct {
	service   *service.UploadService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(svc *service.UploadService, v *validator.Validator, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Create handles POST /api/v1/contents
func (h *UploadHandler) Create(c *fiber.Ctx) error {
	var req dto.UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", "INVALID_BODY")
	}

	if err := h.validator.Validate(&req); err != nil {
		return writeError(c, h.logger, err)
	}

	item, err := h.service.CreateContentItem(c.UserContext(), req.ToDraft())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.FromContentItem(item))
}
