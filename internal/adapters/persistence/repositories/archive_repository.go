package repositories

import (
	"context"
	"time"

	"medref-portal/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// archiveRepository implements ArchiveRepository on GORM/MySQL
type archiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

// Create inserts an archive. The unique index on application_id makes this
// fail with gorm.ErrDuplicatedKey when the application is already archived.
func (r *archiveRepository) Create(ctx context.Context, archive *models.Archive) error {
	return r.db.WithContext(ctx).Create(archive).Error
}

// GetByApplicationID gets the archive for an application
func (r *archiveRepository) GetByApplicationID(ctx context.Context, applicationID uint) (*models.Archive, error) {
	var archive models.Archive
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&archive).Error
	if err != nil {
		return nil, err
	}
	return &archive, nil
}

// ExistsByApplicationID reports whether the application is already archived
func (r *archiveRepository) ExistsByApplicationID(ctx context.Context, applicationID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Archive{}).
		Where("application_id = ?", applicationID).
		Count(&count).Error
	return count > 0, err
}

// List lists archives filtered by medical service and archival window
func (r *archiveRepository) List(ctx context.Context, filter ArchiveFilter, offset, limit int) ([]*models.Archive, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Archive{})

	if filter.MedicalService != "" {
		query = query.Where("medical_service = ?", filter.MedicalService)
	}
	if filter.Year > 0 {
		var start, end time.Time
		if filter.Month > 0 {
			start = time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, time.Local)
			end = start.AddDate(0, 1, 0)
		} else {
			start = time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, time.Local)
			end = start.AddDate(1, 0, 0)
		}
		query = query.Where("archived_at >= ? AND archived_at < ?", start, end)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var archives []*models.Archive
	err := query.
		Order("archived_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&archives).Error

	return archives, total, err
}
