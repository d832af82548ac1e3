package handlers

import (
	"errors"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/core/domain"
	"medref-portal/internal/core/services"
	"medref-portal/internal/pkg/pagination"
	"medref-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ArchiveHandler handles admin archive endpoints
type ArchiveHandler struct {
	archiveService services.ArchiveService
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(archiveService services.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archiveService: archiveService}
}

// ArchiveRequest represents an archival request
type ArchiveRequest struct {
	Notes string `json:"notes,omitempty"`
}

// Archive creates the permanent record of a completed application
// @Summary Archive application
// @Description Create the permanent archive record of a completed application (Admin only)
// @Tags Archive
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param body body ArchiveRequest false "Archive notes"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/applications/{id}/archive [post]
func (h *ArchiveHandler) Archive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid application ID")
	}

	var req ArchiveRequest
	// Body is optional
	_ = c.BodyParser(&req)

	adminID, _ := c.Locals("userID").(uint)

	archive, err := h.archiveService.Archive(c.Context(), services.ArchiveInput{
		ApplicationID: uint(id),
		ArchivedBy:    adminID,
		Notes:         req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrApplicationNotFound):
			return response.NotFound(c, "Application not found")
		case errors.Is(err, domain.ErrInvalidState):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrAlreadyArchived):
			return response.Conflict(c, "Application is already archived")
		case errors.Is(err, domain.ErrNoOfficialDocument):
			return response.BadRequest(c, "Application has no official document to archive")
		case errors.Is(err, domain.ErrDocumentUnavailable):
			return response.BadRequest(c, "Official document payload cannot be located")
		default:
			return response.InternalServerError(c, "Failed to archive application")
		}
	}

	return response.Created(c, "Application archived", fiber.Map{
		"archive": archive.ToResponse(),
	})
}

// Get returns the archive of an application
// @Summary Get archive
// @Description Get the archive record of an application (Admin only)
// @Tags Archive
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/applications/{id}/archive [get]
func (h *ArchiveHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid application ID")
	}

	archive, err := h.archiveService.GetByApplicationID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrArchiveNotFound) {
			return response.NotFound(c, "Archive not found")
		}
		return response.InternalServerError(c, "Failed to load archive")
	}

	return response.Success(c, "", fiber.Map{
		"archive": archive,
	})
}

// List lists archives
// @Summary List archives
// @Description List archives filtered by medical service and archival period (Admin only)
// @Tags Archive
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param medical_service query string false "Filter by medical service"
// @Param year query int false "Filter by archival year"
// @Param month query int false "Filter by archival month (requires year)"
// @Success 200 {object} response.Response
// @Router /admin/archives [get]
func (h *ArchiveHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	filter := repositories.ArchiveFilter{
		MedicalService: c.Query("medical_service"),
		Year:           c.QueryInt("year"),
		Month:          c.QueryInt("month"),
	}

	archives, total, err := h.archiveService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to load archives")
	}

	items := make([]*models.ArchiveResponse, 0, len(archives))
	for _, archive := range archives {
		items = append(items, archive.ToResponse())
	}

	return response.Success(c, "", fiber.Map{
		"archives":   items,
		"pagination": pagination.BuildMeta(params, total),
	})
}
