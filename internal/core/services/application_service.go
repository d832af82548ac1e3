package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/core/domain"
	"medref-portal/internal/pkg/refnum"

	"gorm.io/gorm"
)

// submitMaxAttempts bounds the regenerate-and-retry loop when a generated
// application number collides with an existing one
const submitMaxAttempts = 3

// phonePattern matches local subscriber numbers as stored in applications
var phonePattern = regexp.MustCompile(`^\d{9}$`)

// SubmitApplicationInput carries a citizen's referral request
type SubmitApplicationInput struct {
	UserID        uint
	ServiceID     uint
	FullName      string
	PhoneNumber   string
	Region        string
	District      string
	MedicalReason string
	OtherReason   string
	Justification string
	Documents     []DocumentUpload
}

// ReviewInput carries a reviewer's decision
type ReviewInput struct {
	ApplicationID uint
	ReviewerID    uint
	Status        string
	Notes         string
}

// ApplicationService defines application business logic
type ApplicationService interface {
	Submit(ctx context.Context, input SubmitApplicationInput) (*models.Application, error)
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	GetForApplicant(ctx context.Context, id, userID uint) (*models.Application, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Application, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.Application, int64, error)
	CheckActive(ctx context.Context, userID, serviceID uint) (*models.Application, error)
	Review(ctx context.Context, input ReviewInput) (*models.Application, error)
	IssueOfficialDocument(ctx context.Context, applicationID, uploadedBy uint, upload DocumentUpload) (*models.Application, error)
	GetDocument(ctx context.Context, applicationID uint, index int) (*DocumentFile, error)
	GetOfficialDocument(ctx context.Context, applicationID uint, index int) (*DocumentFile, error)
}

// applicationService implements ApplicationService
type applicationService struct {
	apps       repositories.ApplicationRepository
	catalog    repositories.ServiceRepository
	docs       *DocumentService
	strictMode bool
}

// NewApplicationService creates a new application service. strictMode switches
// review transitions from the permissive default to the forward-only graph.
func NewApplicationService(apps repositories.ApplicationRepository, catalog repositories.ServiceRepository, docs *DocumentService, strictMode bool) ApplicationService {
	return &applicationService{
		apps:       apps,
		catalog:    catalog,
		docs:       docs,
		strictMode: strictMode,
	}
}

// Submit validates the request, snapshots the applicant's details and creates
// the application atomically against the one-active-application rule.
func (s *applicationService) Submit(ctx context.Context, input SubmitApplicationInput) (*models.Application, error) {
	if err := s.validateSubmit(&input); err != nil {
		return nil, err
	}

	service, err := s.catalog.GetByID(ctx, input.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	if !service.IsActive {
		return nil, domain.ErrServiceNotFound
	}

	documents := make([]models.ApplicationDocument, 0, len(input.Documents))
	for _, upload := range input.Documents {
		documents = append(documents, s.docs.BuildApplicationDocument(upload))
	}

	app := &models.Application{
		ApplicationNumber: refnum.Generate(refnum.PrefixApplication),
		UserID:            input.UserID,
		ServiceID:         input.ServiceID,
		FullName:          input.FullName,
		PhoneNumber:       input.PhoneNumber,
		Region:            input.Region,
		District:          input.District,
		MedicalReason:     input.MedicalReason,
		OtherReason:       input.OtherReason,
		Justification:     input.Justification,
		Status:            string(domain.StatusPending),
		SubmittedAt:       time.Now(),
		Documents:         documents,
	}

	for attempt := 1; ; attempt++ {
		err = s.apps.CreateIfNoActive(ctx, app)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < submitMaxAttempts {
			app.ID = 0
			app.ApplicationNumber = refnum.Generate(refnum.PrefixApplication)
			continue
		}
		return nil, err
	}

	app.Service = service
	return app, nil
}

func (s *applicationService) validateSubmit(input *SubmitApplicationInput) error {
	input.FullName = strings.TrimSpace(input.FullName)
	if n := utf8.RuneCountInString(input.FullName); n < 2 || n > 100 {
		return domain.Validationf("full name must be between 2 and 100 characters")
	}
	if !phonePattern.MatchString(input.PhoneNumber) {
		return domain.Validationf("phone number must be exactly 9 digits")
	}
	if utf8.RuneCountInString(input.District) > 100 {
		return domain.Validationf("district must be at most 100 characters")
	}
	if !domain.ValidRegion(input.Region) {
		return domain.Validationf("unknown region %q", input.Region)
	}
	if !domain.ValidMedicalReason(input.MedicalReason) {
		return domain.Validationf("unknown medical reason %q", input.MedicalReason)
	}
	if input.MedicalReason == domain.MedicalReasonOther && strings.TrimSpace(input.OtherReason) == "" {
		return domain.Validationf("a description is required when the medical reason is %q", domain.MedicalReasonOther)
	}
	if strings.TrimSpace(input.Justification) == "" {
		input.Justification = domain.DefaultJustification
	}
	if len(input.Documents) == 0 {
		return domain.Validationf("at least one supporting document is required")
	}
	for _, upload := range input.Documents {
		if err := s.docs.ValidateUpload(upload); err != nil {
			return err
		}
	}
	return nil
}

// GetByID gets an application with its service and document records
func (s *applicationService) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

// GetForApplicant gets an application only if it belongs to the given user.
// Someone else's application reads as not found rather than forbidden.
func (s *applicationService) GetForApplicant(ctx context.Context, id, userID uint) (*models.Application, error) {
	app, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, domain.ErrApplicationNotFound
	}
	return app, nil
}

// ListByUser lists the applicant's own applications
func (s *applicationService) ListByUser(ctx context.Context, userID uint) ([]*models.Application, error) {
	return s.apps.ListByUser(ctx, userID)
}

// List lists applications for reviewers, optionally filtered by status
func (s *applicationService) List(ctx context.Context, status string, offset, limit int) ([]*models.Application, int64, error) {
	if status != "" && !domain.ValidStatus(domain.ApplicationStatus(status)) {
		return nil, 0, domain.Validationf("unknown status %q", status)
	}
	return s.apps.List(ctx, status, offset, limit)
}

// CheckActive returns the user's active application for a service, or nil
// when the user is free to submit
func (s *applicationService) CheckActive(ctx context.Context, userID, serviceID uint) (*models.Application, error) {
	app, err := s.apps.FindActive(ctx, userID, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return app, nil
}

// Review applies a reviewer's decision under a row lock. Every accepted call
// stamps the reviewer and time, rejections additionally require notes.
func (s *applicationService) Review(ctx context.Context, input ReviewInput) (*models.Application, error) {
	target := domain.ApplicationStatus(input.Status)
	if !domain.ValidStatus(target) {
		return nil, domain.Validationf("unknown status %q", input.Status)
	}
	if target == domain.StatusRejected && strings.TrimSpace(input.Notes) == "" {
		return nil, domain.Validationf("review notes are required when rejecting")
	}

	app, err := s.apps.UpdateLocked(ctx, input.ApplicationID, func(app *models.Application) error {
		current := app.CurrentStatus()
		if !domain.CanTransition(current, target, s.strictMode) {
			return domain.Validationf("%s applications cannot move to %s", current, target)
		}
		now := time.Now()
		app.Status = string(target)
		app.ReviewedAt = &now
		app.ReviewedBy = &input.ReviewerID
		app.ReviewNotes = input.Notes
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

// IssueOfficialDocument appends the uploaded document to an approved
// application and completes it. A second issuance finds the application
// already completed and fails with ErrInvalidStateForIssuance.
func (s *applicationService) IssueOfficialDocument(ctx context.Context, applicationID, uploadedBy uint, upload DocumentUpload) (*models.Application, error) {
	if err := s.docs.ValidateUpload(upload); err != nil {
		return nil, err
	}

	doc := s.docs.BuildOfficialDocument(upload, uploadedBy)
	app, err := s.apps.AppendOfficialDocument(ctx, applicationID, &doc)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

// GetDocument decodes an applicant document by position
func (s *applicationService) GetDocument(ctx context.Context, applicationID uint, index int) (*DocumentFile, error) {
	app, err := s.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(app.Documents) {
		return nil, domain.ErrDocumentNotFound
	}
	doc := app.Documents[index]
	return s.decodeFile(doc.FileName, doc.FileType, doc.Payload)
}

// GetOfficialDocument decodes an official document by position
func (s *applicationService) GetOfficialDocument(ctx context.Context, applicationID uint, index int) (*DocumentFile, error) {
	app, err := s.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(app.OfficialDocuments) {
		return nil, domain.ErrDocumentNotFound
	}
	doc := app.OfficialDocuments[index]
	return s.decodeFile(doc.FileName, doc.FileType, doc.Payload)
}

func (s *applicationService) decodeFile(fileName, fileType string, payload func() (domain.DocumentPayload, error)) (*DocumentFile, error) {
	p, err := payload()
	if err != nil {
		return nil, err
	}
	data, err := s.docs.Decode(p)
	if err != nil {
		return nil, err
	}
	return &DocumentFile{FileName: fileName, FileType: fileType, Data: data}, nil
}
