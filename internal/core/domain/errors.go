package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrValidation     = errors.New("validation failed")
	ErrInternalServer = errors.New("internal server error")
)

// Application errors
var (
	ErrApplicationNotFound        = errors.New("application not found")
	ErrServiceNotFound            = errors.New("service not found")
	ErrDuplicateActiveApplication = errors.New("active application already exists for this service")
	ErrInvalidState               = errors.New("application is not in a state that permits this operation")
	ErrInvalidStateForIssuance    = errors.New("official documents can only be issued for approved applications")
)

// Archive errors
var (
	ErrArchiveNotFound    = errors.New("archive not found")
	ErrAlreadyArchived    = errors.New("application is already archived")
	ErrNoOfficialDocument = errors.New("no official document found for this application")
)

// Document errors
var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrDocumentUnavailable = errors.New("document bytes cannot be located")
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Validationf wraps ErrValidation with a field-level message so handlers can
// tell caller mistakes apart from system failures.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
