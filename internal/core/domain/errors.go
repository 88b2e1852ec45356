package domain

import "errors"

// Authentication and authorisation.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRequired      = errors.New("token required")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("access forbidden")
)

// Missing records.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrProductNotFound  = errors.New("product not found")
)

// Uniqueness violations reported by the storage layer.
var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrCategoryExists = errors.New("category already exists")
	ErrTagExists      = errors.New("tag already exists")
	ErrSKUTaken       = errors.New("sku already in use")
	ErrSlugTaken      = errors.New("slug already in use")
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError carries a client-facing message for a malformed request.
type ValidationError struct {
	Message string
}

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
