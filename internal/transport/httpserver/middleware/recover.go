package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/logger"
	"cinepulse-catalog/internal/transport/httpserver/dto"
)

// Recover returns a middleware that turns a handler panic into a 500 response.
// The response carries the request id so a failed call can be found in the logs.
func Recover(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			requestID := c.GetRespHeader(fiber.HeaderXRequestID)
			logger.ForUser(c.UserContext(), log).Error("panic recovered",
				zap.Any("error", r),
				zap.String("stack", string(debug.Stack())),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("request_id", requestID),
			)

			resp := dto.ErrorResponse{
				Error: "internal server error",
				Code:  "PANIC",
			}
			if requestID != "" {
				resp.Details = fiber.Map{"request_id": requestID}
			}
			err = c.Status(fiber.StatusInternalServerError).JSON(resp)
		}()

		return c.Next()
	}
}
