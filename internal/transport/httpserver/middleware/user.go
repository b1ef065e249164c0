package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"cinepulse-catalog/internal/domain"
)

// UserHeader carries the id of the authenticated user, set by the upstream
// auth proxy.
const UserHeader = "X-User-ID"

// CurrentUser threads the user id of UserHeader into the request context.
// Requests without the header stay anonymous.
func CurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := strings.TrimSpace(c.Get(UserHeader)); id != "" {
			c.SetUserContext(domain.WithUserID(c.UserContext(), id))
		}

		return c.Next()
	}
}
