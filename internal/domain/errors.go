package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a node or edge does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedOperation is returned when the active backend lacks a capability.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation error")
	// ErrBackendUnavailable wraps connectivity failures to the graph engine.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrConflict is returned when a write lease is held by someone else.
	ErrConflict = errors.New("conflict")
)

type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RowError describes one failed row of an ingestion batch.
type RowError struct {
	Row int    `json:"row"`
	Err error  `json:"-"`
	Msg string `json:"error"`
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// PartialIngestionError aggregates per-row failures of a best-effort batch.
type PartialIngestionError struct {
	Errors []RowError
}

func (e *PartialIngestionError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "partial ingestion failure"
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, re := range e.Errors {
		msgs = append(msgs, re.Error())
	}
	return fmt.Sprintf("partial ingestion failure (%d rows): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *PartialIngestionError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, len(e.Errors))
	for _, re := range e.Errors {
		out = append(out, re)
	}
	return out
}
