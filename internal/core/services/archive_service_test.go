package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type archiveFixture struct {
	apps     ApplicationService
	appsRepo *memApplicationRepo
	archives ArchiveService
}

func newArchiveFixture(t *testing.T) *archiveFixture {
	t.Helper()
	appsRepo := newMemApplicationRepo()
	catalog := newMemServiceRepo(testService())
	docs := NewDocumentService(t.TempDir())
	return &archiveFixture{
		apps:     NewApplicationService(appsRepo, catalog, docs, false),
		appsRepo: appsRepo,
		archives: NewArchiveService(newMemArchiveRepo(), appsRepo, docs),
	}
}

// completedApplication walks an application through the whole lifecycle:
// submit, approve, issue the official document.
func (f *archiveFixture) completedApplication(t *testing.T, userID uint) *models.Application {
	t.Helper()
	ctx := context.Background()

	app, err := f.apps.Submit(ctx, validSubmitInput(userID))
	require.NoError(t, err)
	_, err = f.apps.Review(ctx, ReviewInput{ApplicationID: app.ID, ReviewerID: 2, Status: string(domain.StatusApproved)})
	require.NoError(t, err)
	completed, err := f.apps.IssueOfficialDocument(ctx, app.ID, 3, pdfUpload("referral-letter.pdf", []byte("official")))
	require.NoError(t, err)
	return completed
}

func TestArchiveLifecycle(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	app := f.completedApplication(t, 10)

	archive, err := f.archives.Archive(ctx, ArchiveInput{ApplicationID: app.ID, ArchivedBy: 4, Notes: "routine"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(archive.ArchiveNumber, "ARC-"))
	assert.Equal(t, app.ID, archive.ApplicationID)
	assert.Equal(t, "Amina Hassan", archive.ApplicantName)
	assert.Equal(t, "Togdheer", archive.ApplicantRegion)
	assert.Equal(t, "Cardiac Diseases", archive.MedicalService)
	assert.Equal(t, domain.DefaultJustification, archive.ReferralReason)
	assert.Equal(t, fmt.Sprintf("base64/%d/referral-letter.pdf", app.ID), archive.OfficialDocumentPath)
	assert.Equal(t, uint(4), archive.ArchivedBy)
	assert.False(t, archive.ArchivedAt.IsZero())

	got, err := f.archives.GetByApplicationID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, archive.ArchiveNumber, got.ArchiveNumber)
}

func TestArchiveIsAtMostOnce(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	app := f.completedApplication(t, 10)

	_, err := f.archives.Archive(ctx, ArchiveInput{ApplicationID: app.ID, ArchivedBy: 4})
	require.NoError(t, err)

	_, err = f.archives.Archive(ctx, ArchiveInput{ApplicationID: app.ID, ArchivedBy: 4})
	assert.ErrorIs(t, err, domain.ErrAlreadyArchived)
}

func TestArchiveRequiresCompletion(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	app, err := f.apps.Submit(ctx, validSubmitInput(10))
	require.NoError(t, err)

	_, err = f.archives.Archive(ctx, ArchiveInput{ApplicationID: app.ID, ArchivedBy: 4})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestArchiveRequiresOfficialDocument(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	// A completed application without an official document should not occur
	// through the API, but historic data can look like this.
	app, err := f.apps.Submit(ctx, validSubmitInput(10))
	require.NoError(t, err)
	_, err = f.appsRepo.UpdateLocked(ctx, app.ID, func(a *models.Application) error {
		a.Status = string(domain.StatusCompleted)
		return nil
	})
	require.NoError(t, err)

	_, err = f.archives.Archive(ctx, ArchiveInput{ApplicationID: app.ID, ArchivedBy: 4})
	assert.ErrorIs(t, err, domain.ErrNoOfficialDocument)
}

func TestArchiveKeepsLegacyOfficialPath(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	app, err := f.apps.Submit(ctx, validSubmitInput(10))
	require.NoError(t, err)
	legacyPath := "2021/referrals/letter.pdf"
	_, err = f.appsRepo.UpdateLocked(ctx, app.ID, func(a *models.Application) error {
		a.Status = string(domain.StatusCompleted)
		a.OfficialDocuments = append(a.OfficialDocuments, models.OfficialDocument{
			FileName:   "letter.pdf",
			FileType:   "application/pdf",
			FileSize:   100,
			FilePath:   &legacyPath,
			UploadedAt: time.Now(),
			UploadedBy: 3,
		})
		return nil
	})
	require.NoError(t, err)

	archive, err := f.archives.Archive(ctx, ArchiveInput{ApplicationID: app.ID, ArchivedBy: 4})
	require.NoError(t, err)
	assert.Equal(t, legacyPath, archive.OfficialDocumentPath)
}

func TestArchiveUsesFirstOfficialDocument(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	// Historic records can hold several official documents; the first one
	// issued is the authoritative record.
	app, err := f.apps.Submit(ctx, validSubmitInput(10))
	require.NoError(t, err)
	firstPath := "2020/referrals/first-letter.pdf"
	secondPath := "2021/referrals/second-letter.pdf"
	_, err = f.appsRepo.UpdateLocked(ctx, app.ID, func(a *models.Application) error {
		a.Status = string(domain.StatusCompleted)
		a.OfficialDocuments = append(a.OfficialDocuments,
			models.OfficialDocument{FileName: "first-letter.pdf", FileType: "application/pdf", FilePath: &firstPath, UploadedAt: time.Now(), UploadedBy: 3},
			models.OfficialDocument{FileName: "second-letter.pdf", FileType: "application/pdf", FilePath: &secondPath, UploadedAt: time.Now(), UploadedBy: 3},
		)
		return nil
	})
	require.NoError(t, err)

	archive, err := f.archives.Archive(ctx, ArchiveInput{ApplicationID: app.ID, ArchivedBy: 4})
	require.NoError(t, err)
	assert.Equal(t, firstPath, archive.OfficialDocumentPath)
}

func TestArchiveUsesOtherReasonDescription(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	input := validSubmitInput(10)
	input.MedicalReason = domain.MedicalReasonOther
	input.OtherReason = "Rare metabolic disorder"

	app, err := f.apps.Submit(ctx, input)
	require.NoError(t, err)
	_, err = f.apps.Review(ctx, ReviewInput{ApplicationID: app.ID, ReviewerID: 2, Status: string(domain.StatusApproved)})
	require.NoError(t, err)
	_, err = f.apps.IssueOfficialDocument(ctx, app.ID, 3, pdfUpload("letter.pdf", []byte("x")))
	require.NoError(t, err)

	archive, err := f.archives.Archive(ctx, ArchiveInput{ApplicationID: app.ID, ArchivedBy: 4})
	require.NoError(t, err)
	assert.Equal(t, "Rare metabolic disorder", archive.MedicalService)
}

func TestArchiveNotFound(t *testing.T) {
	f := newArchiveFixture(t)

	_, err := f.archives.Archive(context.Background(), ArchiveInput{ApplicationID: 404, ArchivedBy: 4})
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)

	_, err = f.archives.GetByApplicationID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrArchiveNotFound)
}

func TestArchiveListFilters(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	app1 := f.completedApplication(t, 10)
	app2 := f.completedApplication(t, 11)

	_, err := f.archives.Archive(ctx, ArchiveInput{ApplicationID: app1.ID, ArchivedBy: 4})
	require.NoError(t, err)
	_, err = f.archives.Archive(ctx, ArchiveInput{ApplicationID: app2.ID, ArchivedBy: 4})
	require.NoError(t, err)

	all, total, err := f.archives.List(ctx, repositories.ArchiveFilter{}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	byService, total, err := f.archives.List(ctx, repositories.ArchiveFilter{MedicalService: "Cardiac Diseases"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, byService, 2)

	now := time.Now()
	thisMonth, total, err := f.archives.List(ctx, repositories.ArchiveFilter{Year: now.Year(), Month: int(now.Month())}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, thisMonth, 2)

	none, total, err := f.archives.List(ctx, repositories.ArchiveFilter{Year: 1999}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, none)
}

func TestArchiveListValidation(t *testing.T) {
	f := newArchiveFixture(t)

	_, _, err := f.archives.List(context.Background(), repositories.ArchiveFilter{Month: 13}, 0, 10)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = f.archives.List(context.Background(), repositories.ArchiveFilter{Month: 3}, 0, 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
