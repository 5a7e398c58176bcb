// Package errors defines the business error taxonomy shared by the
// repository, the services and the transport layer.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrConflict     = fmt.Errorf("conflict")
	ErrInvalidInput = fmt.Errorf("invalid input")
	// ErrDuplicate is returned by the repository when a unique constraint rejects a write.
	ErrDuplicate = fmt.Errorf("duplicate key")
	// ErrReferenced is returned by the repository when a foreign key rejects a
	// write: the parent is gone, or the row still has children.
	ErrReferenced = fmt.Errorf("foreign key violation")
)

// NotFoundError reports a missing entity of the given kind.
type NotFoundError struct {
	Kind string
	ID   uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s(%d) not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError for kind and id.
func NotFound(kind string, id uint) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ConflictError reports a business rule or uniqueness violation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Conflict builds a ConflictError with a formatted message.
func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError carries every field-level violation found in an input,
// keyed by the field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
