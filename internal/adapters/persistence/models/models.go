package models

import (
	"time"

	"medref-portal/internal/core/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table (citizens, reviewers, admins)
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FullName    string         `gorm:"size:100;not null" json:"full_name"`
	Username    string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email       string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PhoneNumber string         `gorm:"size:20" json:"phone_number"`
	Password    string         `gorm:"size:255;not null" json:"-"`
	Role        string         `gorm:"size:20;default:'CITIZEN'" json:"role"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID          uint      `json:"id"`
	FullName    string    `json:"full_name"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		FullName:    u.FullName,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Service Catalog (Master)
// ============================================================

// Service represents the services master table
type Service struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	Category     string         `gorm:"size:30;not null" json:"category"`
	Requirements datatypes.JSON `gorm:"type:json" json:"requirements"`
	Fee          float64        `gorm:"type:decimal(10,2);not null;default:0" json:"fee"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Service) TableName() string {
	return "services"
}

// Service categories
const (
	CategoryMedical        = "medical"
	CategoryAdministrative = "administrative"
	CategoryEmergency      = "emergency"
	CategoryConsultation   = "consultation"
	CategoryReferral       = "referral"
	CategoryOther          = "other"
)

// ============================================================
// Applications
// ============================================================

// Application represents the applications table. Documents and official
// documents live in child tables but behave as embedded, append-only lists:
// rows are never updated or removed through the application lifecycle, only
// appended (the legacy-payload migration is the one exception).
type Application struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ApplicationNumber string     `gorm:"size:40;uniqueIndex;not null" json:"application_number"`
	UserID            uint       `gorm:"not null;index:idx_applicant_service" json:"user_id"`
	ServiceID         uint       `gorm:"not null;index:idx_applicant_service" json:"service_id"`
	FullName          string     `gorm:"size:100;not null" json:"full_name"`
	PhoneNumber       string     `gorm:"size:20;not null" json:"phone_number"`
	Region            string     `gorm:"size:50;not null" json:"region"`
	District          string     `gorm:"size:100" json:"district,omitempty"`
	MedicalReason     string     `gorm:"size:100;not null" json:"medical_reason"`
	OtherReason       string     `gorm:"size:500" json:"other_reason,omitempty"`
	Justification     string     `gorm:"size:1000" json:"justification"`
	Status            string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	SubmittedAt       time.Time  `gorm:"not null" json:"submitted_at"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	ReviewedBy        *uint      `json:"reviewed_by"`
	ReviewNotes       string     `gorm:"size:1000" json:"review_notes,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User              *User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Service           *Service              `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Documents         []ApplicationDocument `gorm:"foreignKey:ApplicationID" json:"documents,omitempty"`
	OfficialDocuments []OfficialDocument    `gorm:"foreignKey:ApplicationID" json:"official_documents,omitempty"`
}

func (Application) TableName() string {
	return "applications"
}

// CurrentStatus returns the status as its domain type
func (a *Application) CurrentStatus() domain.ApplicationStatus {
	return domain.ApplicationStatus(a.Status)
}

// ApplicationResponse DTO
type ApplicationResponse struct {
	ID                uint       `json:"id"`
	ApplicationNumber string     `json:"application_number"`
	UserID            uint       `json:"user_id"`
	ServiceID         uint       `json:"service_id"`
	ServiceName       string     `json:"service_name,omitempty"`
	FullName          string     `json:"full_name"`
	PhoneNumber       string     `json:"phone_number"`
	Region            string     `json:"region"`
	District          string     `json:"district,omitempty"`
	MedicalReason     string     `json:"medical_reason"`
	OtherReason       string     `json:"other_reason,omitempty"`
	Justification     string     `json:"justification"`
	Status            string     `json:"status"`
	SubmittedAt       time.Time  `json:"submitted_at"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy        *uint      `json:"reviewed_by,omitempty"`
	ReviewNotes       string     `json:"review_notes,omitempty"`
	Documents         []DocumentResponse `json:"documents"`
	OfficialDocuments []DocumentResponse `json:"official_documents"`
}

func (a *Application) ToResponse() *ApplicationResponse {
	resp := &ApplicationResponse{
		ID:                a.ID,
		ApplicationNumber: a.ApplicationNumber,
		UserID:            a.UserID,
		ServiceID:         a.ServiceID,
		FullName:          a.FullName,
		PhoneNumber:       a.PhoneNumber,
		Region:            a.Region,
		District:          a.District,
		MedicalReason:     a.MedicalReason,
		OtherReason:       a.OtherReason,
		Justification:     a.Justification,
		Status:            a.Status,
		SubmittedAt:       a.SubmittedAt,
		ReviewedAt:        a.ReviewedAt,
		ReviewedBy:        a.ReviewedBy,
		ReviewNotes:       a.ReviewNotes,
		Documents:         make([]DocumentResponse, 0, len(a.Documents)),
		OfficialDocuments: make([]DocumentResponse, 0, len(a.OfficialDocuments)),
	}

	if a.Service != nil {
		resp.ServiceName = a.Service.Name
	}
	for i := range a.Documents {
		resp.Documents = append(resp.Documents, a.Documents[i].ToResponse(i))
	}
	for i := range a.OfficialDocuments {
		resp.OfficialDocuments = append(resp.OfficialDocuments, a.OfficialDocuments[i].ToResponse(i))
	}

	return resp
}

// ============================================================
// Document Records
// ============================================================

// ApplicationDocument is an applicant-submitted document record. Exactly one
// of FileData/FilePath is set; FilePath is the legacy read-only shape and is
// never written by new code.
type ApplicationDocument struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ApplicationID   uint      `gorm:"not null;index" json:"application_id"`
	FileName        string    `gorm:"size:255;not null" json:"file_name"`
	FileType        string    `gorm:"size:100;not null" json:"file_type"`
	FileSize        int64     `gorm:"not null" json:"file_size"`
	FileData        *string   `gorm:"type:longtext" json:"-"`
	FilePath        *string   `gorm:"size:500" json:"-"`
	RequirementType string    `gorm:"size:100;not null" json:"requirement_type"`
	UploadedAt      time.Time `gorm:"not null" json:"uploaded_at"`
}

func (ApplicationDocument) TableName() string {
	return "application_documents"
}

// Payload extracts the tagged payload union; a record carrying neither shape
// is a data-integrity error surfaced as ErrDocumentUnavailable.
func (d *ApplicationDocument) Payload() (domain.DocumentPayload, error) {
	return extractPayload(d.FileData, d.FilePath)
}

// OfficialDocument is an issuer-uploaded document record, appended only after
// approval. Same payload rules as ApplicationDocument.
type OfficialDocument struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;index" json:"application_id"`
	FileName      string    `gorm:"size:255;not null" json:"file_name"`
	FileType      string    `gorm:"size:100;not null" json:"file_type"`
	FileSize      int64     `gorm:"not null" json:"file_size"`
	FileData      *string   `gorm:"type:longtext" json:"-"`
	FilePath      *string   `gorm:"size:500" json:"-"`
	DocumentType  string    `gorm:"size:100;not null;default:'Official Document'" json:"document_type"`
	UploadedAt    time.Time `gorm:"not null" json:"uploaded_at"`
	UploadedBy    uint      `gorm:"not null" json:"uploaded_by"`
}

func (OfficialDocument) TableName() string {
	return "official_documents"
}

// Payload extracts the tagged payload union
func (d *OfficialDocument) Payload() (domain.DocumentPayload, error) {
	return extractPayload(d.FileData, d.FilePath)
}

func extractPayload(fileData, filePath *string) (domain.DocumentPayload, error) {
	if fileData != nil && *fileData != "" {
		return domain.InlinePayload(*fileData), nil
	}
	if filePath != nil && *filePath != "" {
		return domain.ExternalPathRef(*filePath), nil
	}
	return domain.DocumentPayload{}, domain.ErrDocumentUnavailable
}

// DocumentResponse DTO exposes record metadata without the payload bytes
type DocumentResponse struct {
	Index           int       `json:"index"`
	FileName        string    `json:"file_name"`
	FileType        string    `json:"file_type"`
	FileSize        int64     `json:"file_size"`
	RequirementType string    `json:"requirement_type,omitempty"`
	DocumentType    string    `json:"document_type,omitempty"`
	UploadedAt      time.Time `json:"uploaded_at"`
	UploadedBy      uint      `json:"uploaded_by,omitempty"`
}

func (d *ApplicationDocument) ToResponse(index int) DocumentResponse {
	return DocumentResponse{
		Index:           index,
		FileName:        d.FileName,
		FileType:        d.FileType,
		FileSize:        d.FileSize,
		RequirementType: d.RequirementType,
		UploadedAt:      d.UploadedAt,
	}
}

func (d *OfficialDocument) ToResponse(index int) DocumentResponse {
	return DocumentResponse{
		Index:        index,
		FileName:     d.FileName,
		FileType:     d.FileType,
		FileSize:     d.FileSize,
		DocumentType: d.DocumentType,
		UploadedAt:   d.UploadedAt,
		UploadedBy:   d.UploadedBy,
	}
}

// ============================================================
// Archives
// ============================================================

// Archive is the immutable permanent record created from a completed
// application. The unique index on ApplicationID enforces at-most-once
// archival at the storage layer; the archive service's pre-check only
// supplies the friendlier domain error.
type Archive struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ApplicationID        uint      `gorm:"uniqueIndex;not null" json:"application_id"`
	ArchiveNumber        string    `gorm:"size:40;uniqueIndex;not null" json:"archive_number"`
	ApplicantName        string    `gorm:"size:100;not null" json:"applicant_name"`
	ApplicantPhone       string    `gorm:"size:20;not null" json:"applicant_phone"`
	ApplicantRegion      string    `gorm:"size:50;not null" json:"applicant_region"`
	ApplicantDistrict    string    `gorm:"size:100" json:"applicant_district,omitempty"`
	ServiceType          string    `gorm:"size:100;not null" json:"service_type"`
	MedicalService       string    `gorm:"size:100;not null" json:"medical_service"`
	ReferralReason       string    `gorm:"size:1000;not null" json:"referral_reason"`
	OfficialDocumentPath string    `gorm:"size:500;not null" json:"official_document_path"`
	ArchivedBy           uint      `gorm:"not null" json:"archived_by"`
	ArchivedAt           time.Time `gorm:"not null;index" json:"archived_at"`
	Notes                string    `gorm:"size:1000" json:"notes,omitempty"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Archive) TableName() string {
	return "archives"
}

// ArchiveResponse DTO
type ArchiveResponse struct {
	ID             uint      `json:"id"`
	ApplicationID  uint      `json:"application_id"`
	ArchiveNumber  string    `json:"archive_number"`
	ApplicantName  string    `json:"applicant_name"`
	MedicalService string    `json:"medical_service"`
	ServiceType    string    `json:"service_type"`
	ArchivedAt     time.Time `json:"archived_at"`
}

func (a *Archive) ToResponse() *ArchiveResponse {
	return &ArchiveResponse{
		ID:             a.ID,
		ApplicationID:  a.ApplicationID,
		ArchiveNumber:  a.ArchiveNumber,
		ApplicantName:  a.ApplicantName,
		MedicalService: a.MedicalService,
		ServiceType:    a.ServiceType,
		ArchivedAt:     a.ArchivedAt,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Service{},
		&Application{},
		&ApplicationDocument{},
		&OfficialDocument{},
		&Archive{},
	)
}
