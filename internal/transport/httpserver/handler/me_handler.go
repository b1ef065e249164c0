package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/service"
	"cinepulse-catalog/internal/transport/httpserver/dto"
	"cinepulse-catalog/internal/validator"
)

// MeHandler handles the current user's watchlist, uploads and stats.
type MeHandler struct {
	watchlist *service.WatchlistService
	catalog   *service.CatalogService
	stats     *service.StatsService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(
	watchlist *service.WatchlistService,
	catalog *service.CatalogService,
	stats *service.StatsService,
	v *validator.Validator,
	logger *zap.Logger,
) *MeHandler {
	return &MeHandler{
		watchlist: watchlist,
		catalog:   catalog,
		stats:     stats,
		validator: v,
		logger:    logger,
	}
}

// Watchlist handles GET /api/v1/me/watchlist
func (h *MeHandler) Watchlist(c *fiber.Ctx) error {
	resolved, err := h.watchlist.Resolve(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromResolvedWatchlist(resolved))
}

// AddToWatchlist handles POST /api/v1/me/watchlist
func (h *MeHandler) AddToWatchlist(c *fiber.Ctx) error {
	var req dto.WatchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", "INVALID_BODY")
	}

	if err := h.validator.Validate(&req); err != nil {
		return writeError(c, h.logger, err)
	}

	entry, err := h.watchlist.Add(c.UserContext(), req.ToRef())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.FromWatchlistEntry(entry))
}

// Uploads handles GET /api/v1/me/uploads
func (h *MeHandler) Uploads(c *fiber.Ctx) error {
	result, err := h.catalog.UserUploads(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromAggregationResult(result))
}

// Stats handles GET /api/v1/me/stats
func (h *MeHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Stats(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromUserStats(stats))
}
