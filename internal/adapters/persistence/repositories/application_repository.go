package repositories

import (
	"context"
	"errors"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// applicationRepository implements ApplicationRepository on GORM/MySQL
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func activeStatusValues() []string {
	values := make([]string, 0, len(domain.ActiveStatuses))
	for _, s := range domain.ActiveStatuses {
		values = append(values, string(s))
	}
	return values
}

// CreateIfNoActive runs the duplicate-active check and the insert inside one
// transaction, locking any matching active rows so two concurrent submissions
// for the same pair cannot both pass the check.
func (r *applicationRepository) CreateIfNoActive(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Application
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND service_id = ? AND status IN ?",
				app.UserID, app.ServiceID, activeStatusValues()).
			First(&existing).Error
		if err == nil {
			return domain.ErrDuplicateActiveApplication
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(app).Error
	})
}

// GetByID gets an application by ID with relations
func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("OfficialDocuments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&app, id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// FindActive finds an active application for the (applicant, service) pair
func (r *applicationRepository) FindActive(ctx context.Context, userID, serviceID uint) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND service_id = ? AND status IN ?", userID, serviceID, activeStatusValues()).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ListByUser lists the applicant's own applications, newest first
func (r *applicationRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Application, error) {
	var apps []*models.Application
	err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("OfficialDocuments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

// List lists applications with optional status filter and pagination
func (r *applicationRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Application, int64, error) {
	var apps []*models.Application
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Application{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Service").
		Preload("User").
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("OfficialDocuments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&apps).Error

	return apps, total, err
}

// UpdateLocked applies mutate to a row-locked application and saves it
func (r *applicationRepository) UpdateLocked(ctx context.Context, id uint, mutate func(app *models.Application) error) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, id).Error; err != nil {
			return err
		}
		if err := mutate(&app); err != nil {
			return err
		}
		return tx.Omit("Documents", "OfficialDocuments", "User", "Service").Save(&app).Error
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// AppendOfficialDocument verifies approved status, appends the document and
// completes the application, all under one row lock.
func (r *applicationRepository) AppendOfficialDocument(ctx context.Context, appID uint, doc *models.OfficialDocument) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, appID).Error; err != nil {
			return err
		}
		if app.CurrentStatus() != domain.StatusApproved {
			return domain.ErrInvalidStateForIssuance
		}
		doc.ApplicationID = app.ID
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		app.Status = string(domain.StatusCompleted)
		return tx.Omit("Documents", "OfficialDocuments", "User", "Service").Save(&app).Error
	})
	if err != nil {
		return nil, err
	}
	app.OfficialDocuments = append(app.OfficialDocuments, *doc)
	return &app, nil
}

// ListLegacyDocuments returns applicant documents after the given id that
// still carry only a file path
func (r *applicationRepository) ListLegacyDocuments(ctx context.Context, afterID uint, limit int) ([]*models.ApplicationDocument, error) {
	var docs []*models.ApplicationDocument
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Where("(file_data IS NULL OR file_data = '') AND file_path IS NOT NULL AND file_path <> ''").
		Order("id ASC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

// ListLegacyOfficialDocuments returns official documents after the given id
// that still carry only a file path
func (r *applicationRepository) ListLegacyOfficialDocuments(ctx context.Context, afterID uint, limit int) ([]*models.OfficialDocument, error) {
	var docs []*models.OfficialDocument
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Where("(file_data IS NULL OR file_data = '') AND file_path IS NOT NULL AND file_path <> ''").
		Order("id ASC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

// SaveDocument persists a migrated applicant document
func (r *applicationRepository) SaveDocument(ctx context.Context, doc *models.ApplicationDocument) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// SaveOfficialDocument persists a migrated official document
func (r *applicationRepository) SaveOfficialDocument(ctx context.Context, doc *models.OfficialDocument) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// CountDocumentsByShape counts legacy-path vs inline documents across both
// document tables
func (r *applicationRepository) CountDocumentsByShape(ctx context.Context) (int64, int64, error) {
	legacyCond := "(file_data IS NULL OR file_data = '') AND file_path IS NOT NULL AND file_path <> ''"
	inlineCond := "file_data IS NOT NULL AND file_data <> ''"

	var legacy, inline int64
	for _, m := range []interface{}{&models.ApplicationDocument{}, &models.OfficialDocument{}} {
		var l, i int64
		if err := r.db.WithContext(ctx).Model(m).Where(legacyCond).Count(&l).Error; err != nil {
			return 0, 0, err
		}
		if err := r.db.WithContext(ctx).Model(m).Where(inlineCond).Count(&i).Error; err != nil {
			return 0, 0, err
		}
		legacy += l
		inline += i
	}
	return legacy, inline, nil
}
