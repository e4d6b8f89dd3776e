package config

import (
	"errors"
	"fmt"
)

// Common reasons of configuration errors.
var (
	ErrMissing     = errors.New("is not set")
	ErrNotPositive = errors.New("must be positive")
)

// Error is a configuration problem that prevents the service from starting.
type Error struct {
	// Field is the dotted path of the offending setting.
	Field string
	Err   error
}

func newError(field string, err error) *Error {
	return &Error{Field: field, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("config: %s %v", e.Field, e.Err)
}

// Unwrap returns the underlying reason.
func (e *Error) Unwrap() error {
	return e.Err
}
