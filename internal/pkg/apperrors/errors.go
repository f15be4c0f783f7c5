package apperrors

import "errors"

// Common errors
var (
	ErrConflict         = errors.New("conflict")
	ErrValidationFailed = errors.New("validation failed")
)

// Ingestion errors
var (
	// ErrMissingRequiredField marks a row lacking subject, course number, title or reference number
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrTermUnresolved marks a row whose term could not be read from columns or the filename
	ErrTermUnresolved = errors.New("term could not be resolved")
	// ErrFileAborted wraps any store failure that stopped a file mid-way
	ErrFileAborted = errors.New("file ingestion aborted")
	// ErrEmptyFile is returned for files without a header row
	ErrEmptyFile = errors.New("file has no header row")
)

// Crawl errors
var (
	// ErrInitialLoad is fatal for a crawl run: the directory listing never rendered
	ErrInitialLoad = errors.New("initial directory load failed")
	// ErrProfileFetch marks a per-card profile retrieval failure
	ErrProfileFetch = errors.New("profile fetch failed")
	// ErrNotFound is returned by lookups and by expansion strategies that found nothing to click
	ErrNotFound = errors.New("not found")
)

// Instructor and section lookup errors surfaced by the catalog API
var (
	ErrInstructorNotFound = errors.New("instructor not found")
	ErrSectionNotFound    = errors.New("section not found")
)

// NewValidationError reports an invalid request parameter
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Field:   field,
	}
}

// CustomError carries a user-facing message, and the offending field if any, on top of a sentinel
type CustomError struct {
	Err     error
	Message string
	Field   string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}
