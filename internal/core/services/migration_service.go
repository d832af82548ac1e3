package services

import (
	"context"
	"log"

	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// migrationBatchSize is how many legacy records each sweep pass loads at once
const migrationBatchSize = 50

// MigrationReport summarizes one sweep over legacy-path document records
type MigrationReport struct {
	DocumentsMigrated         int `json:"documents_migrated"`
	OfficialDocumentsMigrated int `json:"official_documents_migrated"`
	Failed                    int `json:"failed"`
}

// MigrationStatus counts document records by payload shape
type MigrationStatus struct {
	LegacyCount int64 `json:"legacy_count"`
	InlineCount int64 `json:"inline_count"`
}

// MigrationService converts legacy on-disk document payloads to the inline
// form. It runs nightly on a cron schedule and can be triggered manually.
type MigrationService interface {
	Start() error
	Stop()
	Sweep(ctx context.Context) (*MigrationReport, error)
	Status(ctx context.Context) (*MigrationStatus, error)
}

// migrationService implements MigrationService
type migrationService struct {
	apps     repositories.ApplicationRepository
	docs     *DocumentService
	schedule string
	cron     *cron.Cron
}

// NewMigrationService creates a new migration service. schedule is a standard
// cron expression, e.g. "0 2 * * *" for 02:00 every night.
func NewMigrationService(apps repositories.ApplicationRepository, docs *DocumentService, schedule string) MigrationService {
	return &migrationService{
		apps:     apps,
		docs:     docs,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers and starts the nightly sweep
func (s *migrationService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		report, err := s.Sweep(context.Background())
		if err != nil {
			log.Printf("Document migration sweep failed: %v", err)
			return
		}
		log.Printf("Document migration sweep: %d documents, %d official documents migrated, %d failed",
			report.DocumentsMigrated, report.OfficialDocumentsMigrated, report.Failed)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler
func (s *migrationService) Stop() {
	s.cron.Stop()
}

// Sweep walks all legacy-path document records in id order, keyed batches.
// The cursor advances past records whose file is gone, so failures piling up
// at the front of the table cannot stall the walk; failed records stay
// legacy and are retried on the next sweep, when a restore of the upload
// directory can still pick them up.
func (s *migrationService) Sweep(ctx context.Context) (*MigrationReport, error) {
	report := &MigrationReport{}

	var cursor uint
	for {
		docs, err := s.apps.ListLegacyDocuments(ctx, cursor, migrationBatchSize)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			cursor = doc.ID
			encoded, err := s.inline(*doc.FilePath)
			if err != nil {
				report.Failed++
				continue
			}
			doc.FileData = &encoded
			doc.FilePath = nil
			if err := s.apps.SaveDocument(ctx, doc); err != nil {
				return nil, err
			}
			report.DocumentsMigrated++
		}
		if len(docs) < migrationBatchSize {
			break
		}
	}

	cursor = 0
	for {
		docs, err := s.apps.ListLegacyOfficialDocuments(ctx, cursor, migrationBatchSize)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			cursor = doc.ID
			encoded, err := s.inline(*doc.FilePath)
			if err != nil {
				report.Failed++
				continue
			}
			doc.FileData = &encoded
			doc.FilePath = nil
			if err := s.apps.SaveOfficialDocument(ctx, doc); err != nil {
				return nil, err
			}
			report.OfficialDocumentsMigrated++
		}
		if len(docs) < migrationBatchSize {
			break
		}
	}

	return report, nil
}

func (s *migrationService) inline(path string) (string, error) {
	data, err := s.docs.Decode(domain.ExternalPathRef(path))
	if err != nil {
		return "", err
	}
	return s.docs.Encode(data), nil
}

// Status reports how many document records remain in each payload shape
func (s *migrationService) Status(ctx context.Context) (*MigrationStatus, error) {
	legacy, inline, err := s.apps.CountDocumentsByShape(ctx)
	if err != nil {
		return nil, err
	}
	return &MigrationStatus{LegacyCount: legacy, InlineCount: inline}, nil
}
