package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/core/domain"
	"medref-portal/internal/core/services"
	"medref-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ApplicationHandler handles citizen-facing application endpoints
type ApplicationHandler struct {
	appService services.ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(appService services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appService: appService}
}

// readUploads converts multipart file headers into document uploads. The
// optional requirement_type values pair with files by position.
func readUploads(files []*multipart.FileHeader, requirementTypes []string) ([]services.DocumentUpload, error) {
	uploads := make([]services.DocumentUpload, 0, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		requirementType := "Supporting Document"
		if i < len(requirementTypes) && requirementTypes[i] != "" {
			requirementType = requirementTypes[i]
		}

		uploads = append(uploads, services.DocumentUpload{
			FileName:        fh.Filename,
			FileType:        fh.Header.Get("Content-Type"),
			FileSize:        fh.Size,
			RequirementType: requirementType,
			Data:            data,
		})
	}
	return uploads, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// Submit creates a referral application
// @Summary Submit application
// @Description Submit a medical referral application with supporting documents
// @Tags Applications
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param service_id formData int true "Service ID"
// @Param full_name formData string true "Applicant full name"
// @Param phone_number formData string true "Phone number"
// @Param region formData string true "Region"
// @Param district formData string false "District"
// @Param medical_reason formData string true "Medical reason"
// @Param other_reason formData string false "Description when reason is Other"
// @Param justification formData string false "Justification"
// @Param documents formData file true "Supporting documents"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)

	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, "Invalid multipart form")
	}

	serviceID, err := strconv.ParseUint(formValue(form, "service_id"), 10, 32)
	if err != nil || serviceID == 0 {
		return response.BadRequest(c, "Service is required")
	}

	uploads, err := readUploads(form.File["documents"], form.Value["requirement_type"])
	if err != nil {
		return response.BadRequest(c, "Could not read uploaded files")
	}

	input := services.SubmitApplicationInput{
		UserID:        userID,
		ServiceID:     uint(serviceID),
		FullName:      formValue(form, "full_name"),
		PhoneNumber:   formValue(form, "phone_number"),
		Region:        formValue(form, "region"),
		District:      formValue(form, "district"),
		MedicalReason: formValue(form, "medical_reason"),
		OtherReason:   formValue(form, "other_reason"),
		Justification: formValue(form, "justification"),
		Documents:     uploads,
	}

	app, err := h.appService.Submit(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrServiceNotFound):
			return response.NotFound(c, "Service not found")
		case errors.Is(err, domain.ErrDuplicateActiveApplication):
			return response.Conflict(c, "You already have an active application for this service")
		default:
			return response.InternalServerError(c, "Failed to submit application")
		}
	}

	return response.Created(c, "Application submitted successfully", fiber.Map{
		"application": app.ToResponse(),
	})
}

// ListMine lists the authenticated citizen's applications
// @Summary My applications
// @Description List the authenticated citizen's applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /applications [get]
func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)

	apps, err := h.appService.ListByUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load applications")
	}

	items := make([]*models.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		items = append(items, app.ToResponse())
	}

	return response.Success(c, "", fiber.Map{
		"applications": items,
	})
}

// Get returns one of the citizen's applications
// @Summary Get application
// @Description Get one of the authenticated citizen's applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid application ID")
	}

	app, err := h.appService.GetForApplicant(c.Context(), uint(id), userID)
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

// CheckActive reports whether the citizen has an active application
// @Summary Check active application
// @Description Check whether the citizen already has an active application for a service
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param service_id query int true "Service ID"
// @Success 200 {object} response.Response
// @Router /applications/check [get]
func (h *ApplicationHandler) CheckActive(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	serviceID := c.QueryInt("service_id")
	if serviceID <= 0 {
		return response.BadRequest(c, "Service is required")
	}

	app, err := h.appService.CheckActive(c.Context(), userID, uint(serviceID))
	if err != nil {
		return response.InternalServerError(c, "Failed to check applications")
	}

	if app == nil {
		return response.Success(c, "", fiber.Map{
			"has_active": false,
		})
	}
	return response.Success(c, "", fiber.Map{
		"has_active":         true,
		"application_number": app.ApplicationNumber,
		"status":             app.Status,
	})
}

// DownloadDocument streams one of the citizen's uploaded documents
// @Summary Download document
// @Description Download a supporting document from one of the citizen's applications
// @Tags Applications
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param index path int true "Document index"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response
// @Router /applications/{id}/documents/{index} [get]
func (h *ApplicationHandler) DownloadDocument(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid application ID")
	}
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return response.BadRequest(c, "Invalid document index")
	}

	// Ownership check before touching document bytes
	if _, err := h.appService.GetForApplicant(c.Context(), uint(id), userID); err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			return response.NotFound(c, "Application not found")
		}
		return response.InternalServerError(c, "Failed to load application")
	}

	file, err := h.appService.GetDocument(c.Context(), uint(id), index)
	if err != nil {
		return documentError(c, err)
	}
	return sendDocument(c, file)
}

// documentError maps document retrieval failures to HTTP responses
func documentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrApplicationNotFound):
		return response.NotFound(c, "Application not found")
	case errors.Is(err, domain.ErrDocumentNotFound):
		return response.NotFound(c, "Document not found")
	case errors.Is(err, domain.ErrDocumentUnavailable):
		return response.NotFound(c, "Document is no longer available")
	default:
		return response.InternalServerError(c, "Failed to load document")
	}
}

// sendDocument streams decoded document bytes as an attachment
func sendDocument(c *fiber.Ctx, file *services.DocumentFile) error {
	c.Set(fiber.HeaderContentType, file.FileType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.FileName+`"`)
	return c.Send(file.Data)
}
