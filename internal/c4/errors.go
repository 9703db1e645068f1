package c4

import (
	"errors"
	"fmt"

	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

// Error taxonomy shared by every layer. Tool handlers map these to
// user-facing tool errors; anything else is an infrastructure failure.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrExternalService = errors.New("external service failure")
	ErrStateTransition = workflow.ErrInvalidTransition
)

// NotFoundError reports an id that does not resolve.
type NotFoundError struct {
	Kind string // project | diagram | element | relationship
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound is a shorthand constructor.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError reports input rejected before any mutation was applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid is a shorthand constructor.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsUserError reports whether err belongs to the caller-facing taxonomy
// (as opposed to an I/O or programming failure).
func IsUserError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrStateTransition)
}
