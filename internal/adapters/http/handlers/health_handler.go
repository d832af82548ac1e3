package handlers

import (
	"time"

	"medref-portal/internal/config"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startTime: time.Now()}
}

// Check returns service health
// @Summary Health check
// @Description Check API and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	overall := "ok"
	dbStatus := "up"
	status := fiber.StatusOK
	if err := config.HealthCheck(); err != nil {
		overall = "degraded"
		dbStatus = "down"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"uptime":   time.Since(h.startTime).String(),
		"database": dbStatus,
		"time":     time.Now().Format(time.RFC3339),
	})
}
