package services

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/core/domain"
)

const (
	// MaxFileSize is the per-document upload ceiling (10 MiB)
	MaxFileSize = 10 << 20
)

// allowedFileTypes is the upload MIME allow-list
var allowedFileTypes = map[string]bool{
	"image/png":          true,
	"image/jpeg":         true,
	"image/jpg":          true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// DocumentUpload carries an incoming file through validation and encoding
type DocumentUpload struct {
	FileName        string
	FileType        string
	FileSize        int64
	RequirementType string
	Data            []byte
}

// DocumentFile is a decoded document ready to serve
type DocumentFile struct {
	FileName string
	FileType string
	Data     []byte
}

// DocumentService validates uploads and moves document payloads between their
// wire form (raw bytes), their canonical stored form (inline encoded text) and
// the legacy on-disk form (a path under the upload directory).
type DocumentService struct {
	uploadDir string
}

// NewDocumentService creates a new document service
func NewDocumentService(uploadDir string) *DocumentService {
	return &DocumentService{uploadDir: uploadDir}
}

// ValidateUpload enforces the name, size and MIME rules for incoming files
func (s *DocumentService) ValidateUpload(upload DocumentUpload) error {
	if strings.TrimSpace(upload.FileName) == "" {
		return domain.Validationf("file name is required")
	}
	if upload.FileSize <= 0 {
		return domain.Validationf("file %s is empty", upload.FileName)
	}
	if upload.FileSize > MaxFileSize {
		return domain.Validationf("file %s exceeds the %d MB limit", upload.FileName, MaxFileSize/(1<<20))
	}
	if !allowedFileTypes[strings.ToLower(upload.FileType)] {
		return domain.Validationf("file type %s is not allowed", upload.FileType)
	}
	return nil
}

// Encode produces the canonical inline text form of raw document bytes
func (s *DocumentService) Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode recovers the raw bytes behind a document payload. Inline payloads
// decode in place; external-path payloads are read from the upload directory.
// A payload whose bytes cannot be recovered (corrupt text, missing file)
// reports ErrDocumentUnavailable.
func (s *DocumentService) Decode(p domain.DocumentPayload) ([]byte, error) {
	if p.Kind == domain.PayloadInline {
		data, err := base64.StdEncoding.DecodeString(p.Encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt inline payload", domain.ErrDocumentUnavailable)
		}
		return data, nil
	}

	path := filepath.Clean(p.Path)
	if filepath.IsAbs(path) || strings.HasPrefix(path, "..") {
		return nil, fmt.Errorf("%w: path escapes upload directory", domain.ErrDocumentUnavailable)
	}
	data, err := os.ReadFile(filepath.Join(s.uploadDir, path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentUnavailable, path)
	}
	return data, nil
}

// StorageRef derives the reference string recorded in archives: legacy
// payloads keep their original path, inline payloads get a synthetic locator.
func (s *DocumentService) StorageRef(applicationID uint, fileName string, p domain.DocumentPayload) string {
	if p.Kind == domain.PayloadExternalPath {
		return p.Path
	}
	return fmt.Sprintf("base64/%d/%s", applicationID, fileName)
}

// BuildApplicationDocument encodes an upload into an applicant document record
func (s *DocumentService) BuildApplicationDocument(upload DocumentUpload) models.ApplicationDocument {
	encoded := s.Encode(upload.Data)
	return models.ApplicationDocument{
		FileName:        upload.FileName,
		FileType:        upload.FileType,
		FileSize:        upload.FileSize,
		FileData:        &encoded,
		RequirementType: upload.RequirementType,
		UploadedAt:      time.Now(),
	}
}

// BuildOfficialDocument encodes an upload into an official document record
func (s *DocumentService) BuildOfficialDocument(upload DocumentUpload, uploadedBy uint) models.OfficialDocument {
	encoded := s.Encode(upload.Data)
	documentType := upload.RequirementType
	if documentType == "" {
		documentType = "Official Document"
	}
	return models.OfficialDocument{
		FileName:     upload.FileName,
		FileType:     upload.FileType,
		FileSize:     upload.FileSize,
		FileData:     &encoded,
		DocumentType: documentType,
		UploadedAt:   time.Now(),
		UploadedBy:   uploadedBy,
	}
}
