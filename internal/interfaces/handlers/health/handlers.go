package health

import (
	healthsvc "micropaper-backend/internal/application/health"
	"micropaper-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Rdb *redis.Client
	DB  healthsvc.DBPinger
}

// GET / — server-rendered status page.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(healthsvc.RenderDashboardHTML(healthsvc.Collect(c.Context(), h.Rdb, h.DB)))
}

// GET /health/json — dependency status plus traffic counters.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	return c.JSON(healthsvc.Collect(c.Context(), h.Rdb, h.DB))
}

// GET /health/errors — last 50 recorded 5xx entries, newest first.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	entries, err := healthsvc.RecentErrors(c.Context(), h.Rdb)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	return c.JSON(entries)
}

// GET /health/reset — clears the traffic counters. Admin only.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if err := healthsvc.Reset(c.Context(), h.Rdb); err != nil {
		return err
	}
	return response.Success(c, "Health counters reset", nil, nil)
}
