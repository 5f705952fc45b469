package tools

import (
	"errors"
	"fmt"

	"mercator-hq/procurement/pkg/audit"
	"mercator-hq/procurement/pkg/budget"
	"mercator-hq/procurement/pkg/catalog"
	"mercator-hq/procurement/pkg/decision"
)

// Sentinel errors for the tools registry.
var (
	ErrNotFound         = errors.New("tool not found")
	ErrAlreadyExists    = errors.New("tool already registered")
	ErrEmptyName        = errors.New("tool name is empty")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Failure codes reported in Result.Error.
const (
	CodeNotFound            = "not_found"
	CodeInvalidArguments    = "invalid_arguments"
	CodeAuditWriteFailed    = "audit_write_failed"
	CodeConcurrencyConflict = "concurrency_conflict"
	CodeInternal            = "internal"
)

// Error is the typed failure of a tool call.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// invalidArgs wraps a description of bad input with ErrInvalidArguments.
func invalidArgs(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArguments, fmt.Sprintf(format, args...))
}

// Classify maps err to a failure code.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, catalog.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidArguments), errors.Is(err, decision.ErrInvalidRequest):
		return CodeInvalidArguments
	case errors.Is(err, audit.ErrAuditWriteFailed):
		return CodeAuditWriteFailed
	case errors.Is(err, budget.ErrConcurrencyConflict):
		return CodeConcurrencyConflict
	default:
		return CodeInternal
	}
}
