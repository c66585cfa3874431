package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid     = errors.New("invalid value")
	ErrDuplicateID = errors.New("duplicate id")
	ErrTooLarge    = errors.New("file too large")
)

// ValidationError describes a rejected field value. Err is one of the
// package sentinels so callers can match with errors.Is.
type ValidationError struct {
	Field string
	Value string
	Cause string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Cause)
}

func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalid
	}
	return e.Err
}
