package decision

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned for a request missing its user or query.
var ErrInvalidRequest = errors.New("invalid decision request")

// TransitionError reports an illegal state change. It indicates a bug in
// the pipeline, not a business outcome.
type TransitionError struct {
	RequestID string
	From      State
	To        State
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("decision %s: illegal transition %s -> %s", e.RequestID, e.From, e.To)
}
