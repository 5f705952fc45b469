package strategy

import (
	"errors"
	"fmt"
)

// ErrNoQualifyingOffer is returned by Select when no usable offer survives
// filtering.
var ErrNoQualifyingOffer = errors.New("no qualifying offer")

// ParseError reports a strategy descriptor that cannot be turned into a
// Strategy.
type ParseError struct {
	Kind    string
	Rule    string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("invalid %s strategy rule %q: %s", e.Kind, e.Rule, e.Message)
	}
	return fmt.Sprintf("invalid strategy %q: %s", e.Kind, e.Message)
}
