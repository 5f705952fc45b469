package procurement

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel for unknown users, departments, products and
// suppliers. Match it with errors.Is.
var ErrNotFound = errors.New("not found")

// Entity kinds reported by NotFoundError.
const (
	KindUser       = "user"
	KindDepartment = "department"
	KindProduct    = "product"
	KindSupplier   = "supplier"
)

// NotFoundError reports a lookup of an unknown reference entity.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap returns ErrNotFound so callers can use errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}
