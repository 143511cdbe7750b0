package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when a caller touches a cart or line it does not own.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrConcurrency is returned when a lock could not be acquired within the bounded wait.
	// Callers may retry.
	ErrConcurrency = errors.New("concurrent update, retry")
	// ErrIntegrity is returned when a referenced catalog row vanished mid-transaction.
	ErrIntegrity = errors.New("integrity violation")
)

// ValidationError carries user-correctable problems keyed by request field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records another field problem and returns the receiver.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
	return e
}

// HasErrors reports whether any field problem was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Prefixed returns a copy whose field keys are nested under prefix, e.g. "lines[2]".
func (e *ValidationError) Prefixed(prefix string) *ValidationError {
	out := &ValidationError{Fields: make(map[string]string, len(e.Fields))}
	for k, v := range e.Fields {
		out.Fields[prefix+"."+k] = v
	}
	return out
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err wraps a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
