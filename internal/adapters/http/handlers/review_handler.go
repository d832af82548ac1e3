package handlers

import (
	"errors"
	"mime/multipart"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/core/domain"
	"medref-portal/internal/core/services"
	"medref-portal/internal/pkg/pagination"
	"medref-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles reviewer and admin application endpoints
type ReviewHandler struct {
	appService services.ApplicationService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(appService services.ApplicationService) *ReviewHandler {
	return &ReviewHandler{appService: appService}
}

// ReviewRequest represents a review decision
type ReviewRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// List lists applications for review
// @Summary List applications
// @Description List applications with optional status filter (Reviewer/Admin)
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/applications [get]
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := c.Query("status")

	apps, total, err := h.appService.List(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to load applications")
	}

	items := make([]*models.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		items = append(items, app.ToResponse())
	}

	return response.Success(c, "", fiber.Map{
		"applications": items,
		"pagination":   pagination.BuildMeta(params, total),
	})
}

// Get returns an application regardless of owner
// @Summary Get application (staff)
// @Description Get any application by ID (Reviewer/Admin)
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/applications/{id} [get]
func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid application ID")
	}

	app, err := h.appService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			return response.NotFound(c, "Application not found")
		}
		return response.InternalServerError(c, "Failed to load application")
	}

	return response.Success(c, "", fiber.Map{
		"application": app.ToResponse(),
	})
}

// Review applies a status decision
// @Summary Review application
// @Description Move an application to a new status (Reviewer/Admin)
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param body body ReviewRequest true "Review decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/applications/{id}/review [put]
func (h *ReviewHandler) Review(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid application ID")
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Status == "" {
		return response.BadRequest(c, "Status is required")
	}

	reviewerID, _ := c.Locals("userID").(uint)

	app, err := h.appService.Review(c.Context(), services.ReviewInput{
		ApplicationID: uint(id),
		ReviewerID:    reviewerID,
		Status:        req.Status,
		Notes:         req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrApplicationNotFound):
			return response.NotFound(c, "Application not found")
		default:
			return response.InternalServerError(c, "Failed to review application")
		}
	}

	return response.Success(c, "Application reviewed", fiber.Map{
		"application": app.ToResponse(),
	})
}

// IssueOfficialDocument uploads the official document for an approved
// application, completing it
// @Summary Issue official document
// @Description Attach the official document to an approved application (Reviewer/Admin)
// @Tags Review
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param document formData file true "Official document"
// @Param document_type formData string false "Document type"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/applications/{id}/official-document [post]
func (h *ReviewHandler) IssueOfficialDocument(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid application ID")
	}

	fh, err := c.FormFile("document")
	if err != nil {
		return response.BadRequest(c, "Official document file is required")
	}
	uploads, err := readUploads([]*multipart.FileHeader{fh}, []string{c.FormValue("document_type")})
	if err != nil {
		return response.BadRequest(c, "Could not read uploaded file")
	}

	uploaderID, _ := c.Locals("userID").(uint)

	app, err := h.appService.IssueOfficialDocument(c.Context(), uint(id), uploaderID, uploads[0])
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrApplicationNotFound):
			return response.NotFound(c, "Application not found")
		case errors.Is(err, domain.ErrInvalidStateForIssuance):
			return response.Conflict(c, "Official documents can only be issued for approved applications")
		default:
			return response.InternalServerError(c, "Failed to issue official document")
		}
	}

	return response.Success(c, "Official document issued", fiber.Map{
		"application": app.ToResponse(),
	})
}

// DownloadDocument streams any applicant document (staff access)
// @Summary Download document (staff)
// @Description Download a supporting document from any application (Reviewer/Admin)
// @Tags Review
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param index path int true "Document index"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response
// @Router /admin/applications/{id}/documents/{index} [get]
func (h *ReviewHandler) DownloadDocument(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid application ID")
	}
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return response.BadRequest(c, "Invalid document index")
	}

	file, err := h.appService.GetDocument(c.Context(), uint(id), index)
	if err != nil {
		return documentError(c, err)
	}
	return sendDocument(c, file)
}

// DownloadOfficialDocument streams an official document
// @Summary Download official document
// @Description Download an issued official document (Reviewer/Admin)
// @Tags Review
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param index path int true "Document index"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response
// @Router /admin/applications/{id}/official-documents/{index} [get]
func (h *ReviewHandler) DownloadOfficialDocument(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid application ID")
	}
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return response.BadRequest(c, "Invalid document index")
	}

	file, err := h.appService.GetOfficialDocument(c.Context(), uint(id), index)
	if err != nil {
		return documentError(c, err)
	}
	return sendDocument(c, file)
}
