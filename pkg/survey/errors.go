package survey

import "fmt"

// ValidationError reports a malformed or out-of-range field. Field names
// match the JSON form of the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a field-level validation failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthorizationError reports that the principal lacks the role or scope
// needed for the requested action. It is distinct from NotFoundError:
// reads outside a principal's scope resolve as not-found so that a
// prober cannot distinguish foreign records from missing ones, while
// writes and role-gated actions are rejected explicitly.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// NewAuthorizationError builds an authorization failure.
func NewAuthorizationError(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

// NotFoundError reports that an entity does not exist, or is invisible
// to the requesting principal.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// NewNotFoundError builds a not-found failure for the named resource.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}
