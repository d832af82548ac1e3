package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type migrationFixture struct {
	apps      ApplicationService
	appsRepo  *memApplicationRepo
	docs      *DocumentService
	migration MigrationService
	uploadDir string
}

func newMigrationFixture(t *testing.T) *migrationFixture {
	t.Helper()
	uploadDir := t.TempDir()
	appsRepo := newMemApplicationRepo()
	docs := NewDocumentService(uploadDir)
	return &migrationFixture{
		apps:      NewApplicationService(appsRepo, newMemServiceRepo(testService()), docs, false),
		appsRepo:  appsRepo,
		docs:      docs,
		migration: NewMigrationService(appsRepo, docs, "0 2 * * *"),
		uploadDir: uploadDir,
	}
}

func (f *migrationFixture) writeLegacyFile(t *testing.T, relPath string, content []byte) {
	t.Helper()
	full := filepath.Join(f.uploadDir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, content, 0o644))
}

// legacyApplication creates an application whose document carries only a
// file path, the shape left behind by the old storage scheme.
func (f *migrationFixture) legacyApplication(t *testing.T, userID uint, relPath string) *models.Application {
	t.Helper()
	ctx := context.Background()

	app, err := f.apps.Submit(ctx, validSubmitInput(userID))
	require.NoError(t, err)

	path := relPath
	_, err = f.appsRepo.UpdateLocked(ctx, app.ID, func(a *models.Application) error {
		a.Documents[0].FileData = nil
		a.Documents[0].FilePath = &path
		return nil
	})
	require.NoError(t, err)
	return app
}

func TestSweepMigratesLegacyDocuments(t *testing.T) {
	f := newMigrationFixture(t)
	ctx := context.Background()

	content := []byte("old on-disk report")
	f.writeLegacyFile(t, "2021/report.pdf", content)
	app := f.legacyApplication(t, 10, "2021/report.pdf")

	report, err := f.migration.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsMigrated)
	assert.Equal(t, 0, report.Failed)

	// The record now carries the inline shape only
	migrated, err := f.apps.GetByID(ctx, app.ID)
	require.NoError(t, err)
	doc := migrated.Documents[0]
	assert.Nil(t, doc.FilePath)
	require.NotNil(t, doc.FileData)
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), *doc.FileData)

	// And downloads keep working after the upload directory disappears
	require.NoError(t, os.RemoveAll(filepath.Join(f.uploadDir, "2021")))
	file, err := f.apps.GetDocument(ctx, app.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, content, file.Data)
}

func TestSweepMigratesOfficialDocuments(t *testing.T) {
	f := newMigrationFixture(t)
	ctx := context.Background()

	content := []byte("old official letter")
	f.writeLegacyFile(t, "2021/letter.pdf", content)

	app, err := f.apps.Submit(ctx, validSubmitInput(10))
	require.NoError(t, err)
	legacyPath := "2021/letter.pdf"
	_, err = f.appsRepo.UpdateLocked(ctx, app.ID, func(a *models.Application) error {
		a.Status = string(domain.StatusCompleted)
		a.OfficialDocuments = append(a.OfficialDocuments, models.OfficialDocument{
			FileName:   "letter.pdf",
			FileType:   "application/pdf",
			FileSize:   int64(len(content)),
			FilePath:   &legacyPath,
			UploadedAt: time.Now(),
			UploadedBy: 3,
		})
		return nil
	})
	require.NoError(t, err)

	report, err := f.migration.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.OfficialDocumentsMigrated)

	migrated, err := f.apps.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, migrated.OfficialDocuments[0].FilePath)
	require.NotNil(t, migrated.OfficialDocuments[0].FileData)
}

func TestSweepLeavesMissingFilesAlone(t *testing.T) {
	f := newMigrationFixture(t)
	ctx := context.Background()

	f.writeLegacyFile(t, "ok.pdf", []byte("present"))
	f.legacyApplication(t, 10, "ok.pdf")
	broken := f.legacyApplication(t, 11, "vanished.pdf")

	report, err := f.migration.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsMigrated)
	assert.Equal(t, 1, report.Failed)

	// The broken record keeps its path so a later restore can recover it
	app, err := f.apps.GetByID(ctx, broken.ID)
	require.NoError(t, err)
	require.NotNil(t, app.Documents[0].FilePath)
	assert.Equal(t, "vanished.pdf", *app.Documents[0].FilePath)
}

func TestSweepAdvancesPastFailingBatch(t *testing.T) {
	f := newMigrationFixture(t)
	ctx := context.Background()

	f.writeLegacyFile(t, "survivor.pdf", []byte("still here"))

	// A full batch of unrecoverable records sits in front of the migratable
	// one, so the sweep must keep walking instead of refetching the head.
	input := validSubmitInput(10)
	input.Documents = nil
	for i := 0; i < migrationBatchSize+1; i++ {
		input.Documents = append(input.Documents, pdfUpload(fmt.Sprintf("doc-%d.pdf", i), []byte("x")))
	}
	app, err := f.apps.Submit(ctx, input)
	require.NoError(t, err)

	_, err = f.appsRepo.UpdateLocked(ctx, app.ID, func(a *models.Application) error {
		for i := range a.Documents {
			path := fmt.Sprintf("gone-%d.pdf", i)
			if i == len(a.Documents)-1 {
				path = "survivor.pdf"
			}
			a.Documents[i].FileData = nil
			a.Documents[i].FilePath = &path
		}
		return nil
	})
	require.NoError(t, err)

	report, err := f.migration.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsMigrated)
	assert.Equal(t, migrationBatchSize, report.Failed)

	migrated, err := f.apps.GetByID(ctx, app.ID)
	require.NoError(t, err)
	last := migrated.Documents[len(migrated.Documents)-1]
	assert.Nil(t, last.FilePath)
	require.NotNil(t, last.FileData)
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newMigrationFixture(t)
	ctx := context.Background()

	f.writeLegacyFile(t, "report.pdf", []byte("content"))
	f.legacyApplication(t, 10, "report.pdf")

	first, err := f.migration.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.DocumentsMigrated)

	second, err := f.migration.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.DocumentsMigrated)
	assert.Equal(t, 0, second.Failed)
}

func TestMigrationStatus(t *testing.T) {
	f := newMigrationFixture(t)
	ctx := context.Background()

	f.writeLegacyFile(t, "report.pdf", []byte("content"))
	f.legacyApplication(t, 10, "report.pdf")

	// One inline application alongside the legacy one
	_, err := f.apps.Submit(ctx, validSubmitInput(11))
	require.NoError(t, err)

	status, err := f.migration.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, status.LegacyCount)
	assert.EqualValues(t, 1, status.InlineCount)

	_, err = f.migration.Sweep(ctx)
	require.NoError(t, err)

	status, err = f.migration.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, status.LegacyCount)
	assert.EqualValues(t, 2, status.InlineCount)
}
