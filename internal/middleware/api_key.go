package middleware

import (
	"crypto/subtle"

	"micropaper-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	apiKeyHeader   = "X-API-Key"
	adminKeyHeader = "X-Admin-Key"
)

// RequireAPIKey validates X-API-Key with a constant-time compare. Returns
// 500 when the server has no key configured, 401 on mismatch.
func RequireAPIKey(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return response.Error(c, "Server configuration error: API_KEY not set", fiber.StatusInternalServerError, nil)
		}
		provided := c.Get(apiKeyHeader)
		if !constantTimeEqual(provided, apiKey) {
			return response.Unauthorized(c, "Invalid API key")
		}
		return c.Next()
	}
}

// RequireAdminKey validates X-Admin-Key for admin-only operations
// (settlement, wallet verification). 403 on mismatch.
func RequireAdminKey(adminKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if adminKey == "" {
			return response.Error(c, "Server configuration error: ADMIN_KEY not set", fiber.StatusInternalServerError, nil)
		}
		provided := c.Get(adminKeyHeader)
		if provided == "" || !constantTimeEqual(provided, adminKey) {
			return response.Forbidden(c, "Admin access required. Invalid or missing X-Admin-Key header")
		}
		return c.Next()
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
