package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/service"
	"cinepulse-catalog/internal/app/session"
	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/transport/httpserver/dto"
	"cinepulse-catalog/internal/validator"
)

// writeError maps use case errors to status codes and the error envelope.
// Unexpected errors are logged and reported as 500.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var (
		draftErr *domain.ValidationError
		fieldErr validator.ValidationErrors
	)

	switch {
	case errors.As(err, &draftErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   draftErr.Message,
			Code:    "VALIDATION_ERROR",
			Details: fiber.Map{"field": draftErr.Field},
		})
	case errors.As(err, &fieldErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: fieldErr,
		})
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: "authentication required",
			Code:  "UNAUTHENTICATED",
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "content not found",
			Code:  "NOT_FOUND",
		})
	case errors.Is(err, session.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "session not found",
			Code:  "SESSION_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrUploadInProgress):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "UPLOAD_IN_PROGRESS",
		})
	case service.IsUnavailable(err):
		var cu *domain.CatalogUnavailableError
		var details any
		if errors.As(err, &cu) {
			details = dto.FromSourceFailures(cu.Failures)
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error:   "catalog unavailable",
			Code:    "CATALOG_UNAVAILABLE",
			Details: details,
		})
	case errors.Is(err, domain.ErrSourceFetch), errors.Is(err, gobreaker.ErrOpenState):
		logger.Warn("data service unavailable", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: "data service unavailable",
			Code:  "SOURCE_UNAVAILABLE",
		})
	default:
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "internal error",
			Code:  "INTERNAL_ERROR",
		})
	}
}

func badRequest(c *fiber.Ctx, msg, code string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: msg,
		Code:  code,
	})
}
