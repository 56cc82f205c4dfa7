// Package apperr holds the error taxonomy shared by the store, session, and API layers.
package apperr

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrImmutable         = errors.New("collection does not support updates")
	ErrStoreUnavailable  = errors.New("session store unavailable")
)

// ValidationError reports the input fields that were missing, empty, or invalid.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []string
	Err    error
}

// NewValidationError builds a ValidationError for the given fields.
func NewValidationError(err error, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Err: err}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	if len(e.Fields) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		b.WriteString(" (")
		b.WriteString(e.Err.Error())
		b.WriteString(")")
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
