package repositories

import (
	"context"

	"medref-portal/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// serviceRepository implements ServiceRepository on GORM/MySQL
type serviceRepository struct {
	db *gorm.DB
}

// NewServiceRepository creates a new service repository
func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

// GetByID gets a service by ID
func (r *serviceRepository) GetByID(ctx context.Context, id uint) (*models.Service, error) {
	var service models.Service
	err := r.db.WithContext(ctx).First(&service, id).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// ListActive lists active services
func (r *serviceRepository) ListActive(ctx context.Context) ([]*models.Service, error) {
	var services []*models.Service
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&services).Error
	return services, err
}
