// Package domain holds the joke record and the errors the rest of the
// service speaks. Errors describe what went wrong with jokes and their
// source, not how a transport reports it; adapters map them to HTTP status
// codes or CLI output.
package domain

import (
	"errors"
	"fmt"
)

// Sentinels. Every typed error below unwraps to exactly one of them.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError reports a lookup that matched nothing, such as an unknown
// joke id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError reports that entity id does not exist.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports fetched data that breaks an invariant of the joke
// set, for example two jokes sharing an id in one batch.
type ConflictError struct {
	Entity  string
	Reason  string
	Details string
}

func (e *ConflictError) Error() string {
	msg := e.Entity + " conflict: " + e.Reason
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}

	return msg
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

func NewConflictErrorWithDetails(entity, reason, details string) error {
	return &ConflictError{Entity: entity, Reason: reason, Details: details}
}

// ValidationError rejects an argument before any work is done. Field is
// empty when the upstream rejected the request as a whole.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue also records the rejected value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// UnavailableError means the joke source could not serve a request: it was
// unreachable, answered with a failure status, or sent a body that could not
// be used. Status is the upstream HTTP status when there was one. Cause, when
// set, stays reachable through errors.Is and errors.As.
type UnavailableError struct {
	Service string
	Reason  string
	Status  int
	Cause   error
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("service %q unavailable", e.Service)
	}

	return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
}

func (e *UnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnavailable}
	}

	return []error{ErrUnavailable, e.Cause}
}

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// NewUnavailableErrorWithCause keeps the transport error that made the
// source unavailable.
func NewUnavailableErrorWithCause(service, reason string, cause error) error {
	return &UnavailableError{Service: service, Reason: reason, Cause: cause}
}

// NewUpstreamStatusError reports a failure status answered by the source.
func NewUpstreamStatusError(service string, status int, message string) error {
	return &UnavailableError{
		Service: service,
		Reason:  fmt.Sprintf("HTTP %d: %s", status, message),
		Status:  status,
	}
}

// UpstreamStatus returns the HTTP status carried by an UnavailableError.
func UpstreamStatus(err error) (int, bool) {
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) && unavailable.Status != 0 {
		return unavailable.Status, true
	}

	return 0, false
}

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool    { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
