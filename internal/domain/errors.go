package domain

import "fmt"

// ValidationError is raised locally, before any gateway round-trip.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Msg)
}

func Validation(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// NotFoundError means the entity is absent, which is distinct from an
// empty list and from a gateway failure.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

func NotFound(entity, key string) error { return &NotFoundError{Entity: entity, Key: key} }

// GatewayError wraps a store/network failure. The store's message is
// passed through verbatim; no retry happens at this layer.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return e.Err.Error() }
func (e *GatewayError) Unwrap() error { return e.Err }

func Gateway(op string, err error) error {
	if err == nil {
		return nil
	}
	return &GatewayError{Op: op, Err: err}
}

// AuthError means the credential check rejected a sign-in/up.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }

func Auth(msg string) error { return &AuthError{Msg: msg} }
