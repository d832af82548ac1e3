package repositories

import (
	"context"

	"medref-portal/internal/adapters/persistence/models"
)

// ApplicationRepository defines application data access. Methods that change
// lifecycle state run check-and-write under one transaction with a row lock,
// so concurrent submissions, reviews and issuances cannot race past each
// other's precondition checks.
type ApplicationRepository interface {
	// CreateIfNoActive inserts the application unless the same
	// (applicant, service) pair already has one in an active status, in
	// which case it returns domain.ErrDuplicateActiveApplication.
	CreateIfNoActive(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	FindActive(ctx context.Context, userID, serviceID uint) (*models.Application, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Application, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.Application, int64, error)
	// UpdateLocked loads the application under a row lock, applies mutate
	// and persists the result in the same transaction. An error from
	// mutate aborts the transaction and is returned as-is.
	UpdateLocked(ctx context.Context, id uint, mutate func(app *models.Application) error) (*models.Application, error)
	// AppendOfficialDocument atomically verifies the application is in
	// approved status, appends the document and marks the application
	// completed. Returns domain.ErrInvalidStateForIssuance otherwise.
	AppendOfficialDocument(ctx context.Context, appID uint, doc *models.OfficialDocument) (*models.Application, error)

	// Legacy payload migration support. The listings return records with
	// id > afterID in id order, so a sweep can walk the whole table even
	// when records it cannot convert pile up at the front.
	ListLegacyDocuments(ctx context.Context, afterID uint, limit int) ([]*models.ApplicationDocument, error)
	ListLegacyOfficialDocuments(ctx context.Context, afterID uint, limit int) ([]*models.OfficialDocument, error)
	SaveDocument(ctx context.Context, doc *models.ApplicationDocument) error
	SaveOfficialDocument(ctx context.Context, doc *models.OfficialDocument) error
	CountDocumentsByShape(ctx context.Context) (legacy int64, inline int64, err error)
}

// ArchiveFilter narrows archive listings
type ArchiveFilter struct {
	MedicalService string
	Year           int
	Month          int
}

// ArchiveRepository defines archive data access
type ArchiveRepository interface {
	Create(ctx context.Context, archive *models.Archive) error
	GetByApplicationID(ctx context.Context, applicationID uint) (*models.Archive, error)
	ExistsByApplicationID(ctx context.Context, applicationID uint) (bool, error)
	List(ctx context.Context, filter ArchiveFilter, offset, limit int) ([]*models.Archive, int64, error)
}

// ServiceRepository defines service catalog data access
type ServiceRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Service, error)
	ListActive(ctx context.Context) ([]*models.Service, error)
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}
