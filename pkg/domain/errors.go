package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFlowNotFound is returned when a flow ID cannot be found in the store.
var ErrFlowNotFound = errors.New("flow not found")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrFlowPublished is returned when deleting a published flow; the flow
// must be demoted to draft first.
var ErrFlowPublished = errors.New("flow is published: demote it to draft before deleting")

// ValidationFailedError carries the full validator error list when a
// structurally unsound graph is rejected at publish time. The caller can
// edit and resubmit.
type ValidationFailedError struct {
	Errors []string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("flow validation failed: %s", strings.Join(e.Errors, "; "))
}

// IsValidationFailed reports whether err wraps a ValidationFailedError.
func IsValidationFailed(err error) bool {
	var v *ValidationFailedError
	return errors.As(err, &v)
}
