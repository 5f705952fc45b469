package catalog

import (
	"fmt"
	"strings"

	"mercator-hq/procurement/pkg/procurement"
)

// ErrNotFound is returned (wrapped in a *NotFoundError) by every lookup of
// an unknown id.
var ErrNotFound = procurement.ErrNotFound

// NotFoundError names the entity kind and id of a failed lookup.
type NotFoundError = procurement.NotFoundError

// LoadError represents a failure to read or decode a catalog file.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load catalog file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load catalog file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// IntegrityError reports catalog data that decodes but is inconsistent:
// duplicate ids, dangling references, negative amounts or an unparseable
// strategy rule.
type IntegrityError struct {
	// Kind is the entity kind (user, department, product, supplier, offer)
	Kind string

	// ID identifies the offending entity
	ID string

	// Message describes the problem
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid %s %q: %s: %v", e.Kind, e.ID, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.ID, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *IntegrityError) Unwrap() error {
	return e.Cause
}

// ErrorList collects every integrity problem found in one load so they can
// be fixed in a single pass.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d catalog errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %v\n", i+1, err))
	}
	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the list.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if the list contains any errors.
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil if there are no errors, the single error if there is one,
// or the ErrorList itself if there are multiple errors.
func (e *ErrorList) ToError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return e
}
