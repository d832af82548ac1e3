package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/core/domain"
	"medref-portal/internal/pkg/refnum"

	"gorm.io/gorm"
)

// archiveMaxAttempts bounds the regenerate-and-retry loop when a generated
// archive number collides with an existing one
const archiveMaxAttempts = 3

// ArchiveInput carries an admin's archival request
type ArchiveInput struct {
	ApplicationID uint
	ArchivedBy    uint
	Notes         string
}

// ArchiveService defines archive business logic
type ArchiveService interface {
	Archive(ctx context.Context, input ArchiveInput) (*models.Archive, error)
	GetByApplicationID(ctx context.Context, applicationID uint) (*models.Archive, error)
	List(ctx context.Context, filter repositories.ArchiveFilter, offset, limit int) ([]*models.Archive, int64, error)
}

// archiveService implements ArchiveService
type archiveService struct {
	archives repositories.ArchiveRepository
	apps     repositories.ApplicationRepository
	docs     *DocumentService
}

// NewArchiveService creates a new archive service
func NewArchiveService(archives repositories.ArchiveRepository, apps repositories.ApplicationRepository, docs *DocumentService) ArchiveService {
	return &archiveService{
		archives: archives,
		apps:     apps,
		docs:     docs,
	}
}

// Archive creates the permanent record for a completed application, at most
// once. The pre-check gives the friendly ErrAlreadyArchived; the unique index
// on application_id is what actually guarantees at-most-once under
// concurrency, and a duplicate-key failure there is re-read as the same error.
func (s *archiveService) Archive(ctx context.Context, input ArchiveInput) (*models.Archive, error) {
	app, err := s.apps.GetByID(ctx, input.ApplicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, err
	}

	if app.CurrentStatus() != domain.StatusCompleted {
		return nil, fmt.Errorf("%w: only completed applications can be archived", domain.ErrInvalidState)
	}

	exists, err := s.archives.ExistsByApplicationID(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyArchived
	}

	if len(app.OfficialDocuments) == 0 {
		return nil, domain.ErrNoOfficialDocument
	}
	// Legacy data may hold several official documents; the first one issued
	// is the authoritative record.
	official := app.OfficialDocuments[0]
	payload, err := official.Payload()
	if err != nil {
		return nil, err
	}

	medicalService := app.MedicalReason
	if medicalService == domain.MedicalReasonOther && app.OtherReason != "" {
		medicalService = app.OtherReason
	}
	serviceType := ""
	if app.Service != nil {
		serviceType = app.Service.Name
	}

	archive := &models.Archive{
		ApplicationID:        app.ID,
		ArchiveNumber:        refnum.Generate(refnum.PrefixArchive),
		ApplicantName:        app.FullName,
		ApplicantPhone:       app.PhoneNumber,
		ApplicantRegion:      app.Region,
		ApplicantDistrict:    app.District,
		ServiceType:          serviceType,
		MedicalService:       medicalService,
		ReferralReason:       app.Justification,
		OfficialDocumentPath: s.docs.StorageRef(app.ID, official.FileName, payload),
		ArchivedBy:           input.ArchivedBy,
		ArchivedAt:           time.Now(),
		Notes:                input.Notes,
	}

	for attempt := 1; ; attempt++ {
		err = s.archives.Create(ctx, archive)
		if err == nil {
			return archive, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// The collision is either a concurrent archival of the same
		// application or an archive-number clash. Only the latter is
		// retryable.
		exists, existsErr := s.archives.ExistsByApplicationID(ctx, app.ID)
		if existsErr != nil {
			return nil, existsErr
		}
		if exists {
			return nil, domain.ErrAlreadyArchived
		}
		if attempt >= archiveMaxAttempts {
			return nil, err
		}
		archive.ID = 0
		archive.ArchiveNumber = refnum.Generate(refnum.PrefixArchive)
	}
}

// GetByApplicationID gets the archive of an application
func (s *archiveService) GetByApplicationID(ctx context.Context, applicationID uint) (*models.Archive, error) {
	archive, err := s.archives.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrArchiveNotFound
		}
		return nil, err
	}
	return archive, nil
}

// List lists archives with filters and pagination
func (s *archiveService) List(ctx context.Context, filter repositories.ArchiveFilter, offset, limit int) ([]*models.Archive, int64, error) {
	if filter.Month < 0 || filter.Month > 12 {
		return nil, 0, domain.Validationf("month must be between 1 and 12")
	}
	if filter.Month > 0 && filter.Year == 0 {
		return nil, 0, domain.Validationf("month filter requires a year")
	}
	return s.archives.List(ctx, filter, offset, limit)
}
