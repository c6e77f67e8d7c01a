package utils

import (
	"errors"
	"fmt"
)

// Error taxonomy for the analytics engines:
//
//   - ValidationError: malformed or out-of-range input. Raised before any
//     computation starts.
//   - NotFoundError: the referenced branch/period has zero data and no
//     fallback is possible.
//   - InsufficientDataError: data exists but is too sparse for the primary
//     method. Engines recover from this internally via declared fallbacks;
//     it escapes only when no degraded heuristic exists.
//   - ComputationError: an internal invariant was violated. Fatal, never
//     retried.

var ErrorRecordNotFound = errors.New("record not found")

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

type NotFoundError struct {
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrorRecordNotFound
}

func NewNotFoundError(resource, name string) *NotFoundError {
	return &NotFoundError{Resource: resource, Name: name}
}

type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return "insufficient data: " + e.Reason
}

func NewInsufficientDataError(reason string) *InsufficientDataError {
	return &InsufficientDataError{Reason: reason}
}

type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed in %s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFoundError(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe) || errors.Is(err, ErrorRecordNotFound)
}
