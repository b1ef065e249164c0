// Package handler provides HTTP handlers for the API.
package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/service"
	"cinepulse-catalog/internal/app/view"
	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/transport/httpserver/dto"
	"cinepulse-catalog/internal/validator"
)

// CatalogHandler handles catalog reads.
type CatalogHandler struct {
	service   *service.CatalogService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc *service.CatalogService, v *validator.Validator, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Catalog handles GET /api/v1/catalog
func (h *CatalogHandler) Catalog(c *fiber.Ctx) error {
	result, err := h.service.FetchCatalog(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromAggregationResult(result))
}

// View handles GET /api/v1/catalog/view
func (h *CatalogHandler) View(c *fiber.Ctx) error {
	var req dto.ViewRequest
	if err := c.QueryParser(&req); err != nil {
		return badRequest(c, "invalid query parameters", "INVALID_PARAMS")
	}

	if err := h.validator.Validate(&req); err != nil {
		return writeError(c, h.logger, err)
	}

	ctrl := view.NewControllerWithState(req.ToViewState(), h.logger)
	defer ctrl.Close()

	snap, err := ctrl.Refresh(c.UserContext(), h.service)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromSnapshot(snap))
}

// Featured handles GET /api/v1/catalog/featured
func (h *CatalogHandler) Featured(c *fiber.Ctx) error {
	items, err := h.service.Featured(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"contents": dto.FromContentItems(items)})
}

// GetContent handles GET /api/v1/contents/:kind/:id
func (h *CatalogHandler) GetContent(c *fiber.Ctx) error {
	kind, ok := domain.ParseContentKind(c.Params("kind"))
	if !ok {
		return writeError(c, h.logger, domain.ErrNotFound)
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id is required", "MISSING_ID")
	}

	item, err := h.service.GetContent(c.UserContext(), domain.ContentRef{Kind: kind, ContentID: id})
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromContentItem(item))
}
