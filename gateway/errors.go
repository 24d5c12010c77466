package gateway

import "fmt"

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AuthorizationError means the request secret did not match.
type AuthorizationError struct{}

func (e *AuthorizationError) Error() string {
	return "secret does not match"
}
