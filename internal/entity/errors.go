package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNoteNotFound         = errors.New("note not found")
	ErrImageNotFound        = errors.New("image not found")
	ErrImageQuotaExceeded   = errors.New("image quota exceeded")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrValidation           = errors.New("validation failed")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// FileError rejects one uploaded file. Err is one of the upload sentinels.
type FileError struct {
	File   string
	Err    error
	Detail string
}

func (e *FileError) Error() string {
	return e.Detail
}

func (e *FileError) Unwrap() error {
	return e.Err
}
