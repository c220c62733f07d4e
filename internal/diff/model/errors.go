package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDiffSetNotFound indicates that the requested diffset does not exist.
	ErrDiffSetNotFound = errors.New("diffset not found")
	// ErrFileDiffNotFound indicates that the requested filediff does not exist.
	ErrFileDiffNotFound = errors.New("filediff not found")
	// ErrNoRepository indicates that the review request has no repository and
	// cannot accept SCM-backed diffs.
	ErrNoRepository = errors.New("review request has no repository")
	// ErrPermissionDenied indicates that the actor may not modify the draft diff.
	ErrPermissionDenied = errors.New("permission denied")
)

// DiffTooBigError indicates that an uploaded diff exceeds the configured
// maximum size. It carries the limit and the offending measurement.
type DiffTooBigError struct {
	MaxSize int
	Size    int
}

// Error implements the error interface.
func (e *DiffTooBigError) Error() string {
	return fmt.Sprintf("the supplied diff file is too large (%d bytes, maximum %d)", e.Size, e.MaxSize)
}

// ValidationError carries field-scoped validation failures. Every invalid
// field is collected before the error is returned.
type ValidationError struct {
	Fields map[string][]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("one or more fields had errors: %v", e.Fields)
}

// AddFieldError records a validation failure for the named field.
func (e *ValidationError) AddFieldError(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
