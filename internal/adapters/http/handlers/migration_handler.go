package handlers

import (
	"medref-portal/internal/core/services"
	"medref-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MigrationHandler handles admin document migration endpoints
type MigrationHandler struct {
	migrationService services.MigrationService
}

// NewMigrationHandler creates a new migration handler
func NewMigrationHandler(migrationService services.MigrationService) *MigrationHandler {
	return &MigrationHandler{migrationService: migrationService}
}

// Trigger runs a migration sweep immediately
// @Summary Trigger document migration
// @Description Convert legacy on-disk documents to inline payloads now (Admin only)
// @Tags Migration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/migrate-documents [post]
func (h *MigrationHandler) Trigger(c *fiber.Ctx) error {
	report, err := h.migrationService.Sweep(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Migration sweep failed")
	}

	return response.Success(c, "Migration sweep finished", fiber.Map{
		"report": report,
	})
}

// Status reports document payload shapes
// @Summary Document migration status
// @Description Count remaining legacy-path documents vs inline documents (Admin only)
// @Tags Migration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/migrate-documents/status [get]
func (h *MigrationHandler) Status(c *fiber.Ctx) error {
	status, err := h.migrationService.Status(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load migration status")
	}

	return response.Success(c, "", fiber.Map{
		"status": status,
	})
}
