package services

import (
	"context"
	"errors"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/core/domain"

	"gorm.io/gorm"
)

// CatalogService exposes the service catalog
type CatalogService interface {
	ListServices(ctx context.Context) ([]*models.Service, error)
	GetService(ctx context.Context, id uint) (*models.Service, error)
}

// catalogService implements CatalogService
type catalogService struct {
	services repositories.ServiceRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(services repositories.ServiceRepository) CatalogService {
	return &catalogService{services: services}
}

// ListServices lists active services
func (s *catalogService) ListServices(ctx context.Context) ([]*models.Service, error) {
	return s.services.ListActive(ctx)
}

// GetService gets a service by ID
func (s *catalogService) GetService(ctx context.Context, id uint) (*models.Service, error) {
	service, err := s.services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return service, nil
}
