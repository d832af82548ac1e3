package handlers

import (
	"errors"

	"medref-portal/internal/core/domain"
	"medref-portal/internal/core/services"
	"medref-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles service catalog endpoints
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// List lists active services
// @Summary List services
// @Description List services citizens can apply for
// @Tags Services
// @Produce json
// @Success 200 {object} response.Response
// @Router /services [get]
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	servicesList, err := h.catalogService.ListServices(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load services")
	}

	return response.Success(c, "", fiber.Map{
		"services": servicesList,
	})
}

// Get returns a service by ID
// @Summary Get service
// @Description Get a service with its document requirements
// @Tags Services
// @Produce json
// @Param id path int true "Service ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /services/{id} [get]
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid service ID")
	}

	service, err := h.catalogService.GetService(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrServiceNotFound) {
			return response.NotFound(c, "Service not found")
		}
		return response.InternalServerError(c, "Failed to load service")
	}

	return response.Success(c, "", fiber.Map{
		"service": service,
	})
}
