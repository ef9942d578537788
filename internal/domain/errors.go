package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeUnavailable      = "UNAVAILABLE"
)

// Validation errors
var (
	ErrEmptyQuestion       = NewDomainError(ErrCodeValidation, "question must not be empty")
	ErrEmptyTopic          = NewDomainError(ErrCodeValidation, "topic must not be empty")
	ErrUnsupportedFileType = NewDomainError(ErrCodeValidation, "unsupported file type")
	ErrInvalidChunkConfig  = NewDomainError(ErrCodeValidation, "chunk size must be greater than overlap")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
)

// Operation errors
var (
	ErrNoDocumentsDir = NewDomainError(ErrCodeInvalidOperation, "documents directory does not exist")
	ErrStoreFailure   = NewDomainError(ErrCodeInternalError, "vector store operation failed")
)
