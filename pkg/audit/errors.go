package audit

import (
	"errors"
	"fmt"
)

// ErrAuditWriteFailed is matched by every failed audit write.
var ErrAuditWriteFailed = errors.New("audit write failed")

// ErrDuplicateRecord is returned when a record id is stored twice.
var ErrDuplicateRecord = errors.New("duplicate audit record")

// ErrRecordNotFound is returned by Get for an unknown record id.
var ErrRecordNotFound = errors.New("audit record not found")

// WriteError describes an audit record that could not be persisted.
type WriteError struct {
	RecordID string
	UserID   string
	Action   string
	Cause    error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("audit write failed [record=%s, user=%s, action=%s]: %v",
		e.RecordID, e.UserID, e.Action, e.Cause)
}

// Unwrap exposes both ErrAuditWriteFailed and the underlying cause.
func (e *WriteError) Unwrap() []error {
	return []error{ErrAuditWriteFailed, e.Cause}
}

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("store", "query", ...)
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// QueryError represents an invalid query.
type QueryError struct {
	Query *Query
	Cause error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// ExportError represents an error while exporting records.
type ExportError struct {
	Format      string
	RecordCount int
	Cause       error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, records=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{
		Format:      format,
		RecordCount: recordCount,
		Cause:       cause,
	}
}
