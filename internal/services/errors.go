package services

import (
	"errors"
	"fmt"
)

// Service errors. Absence of a record is not an error: lookups return nil, nil.
var (
	ErrInvalidReference  = errors.New("invalid reference")
	ErrAuthFailure       = errors.New("access denied")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmailTaken        = errors.New("email already registered")
	ErrForbidden         = errors.New("forbidden")

	ErrDirectoryNotConfigured = errors.New("user directory not configured")
)

// InvalidReferenceError names the missing record a request pointed at
type InvalidReferenceError struct {
	Entity string
	ID     string
}

func NewInvalidReferenceError(entity, id string) *InvalidReferenceError {
	return &InvalidReferenceError{Entity: entity, ID: id}
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Entity, e.ID)
}

func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

// TransitionError describes a rejected learner-driven status change
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
