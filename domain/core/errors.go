package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrBucketNotFound = fmt.Errorf("%w: bucket", ErrNotFound)
	ErrMatrixNotFound = fmt.Errorf("%w: count matrix", ErrNotFound)

	// Precondition errors
	ErrInsufficientData = errors.New("insufficient data for fit")
	ErrShapeMismatch    = errors.New("paired sequences differ in length")

	// Determinism errors
	ErrSeedRequired = errors.New("random source required")

	// Input errors
	ErrValidation = errors.New("validation failed")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, field, reason)
}

func NewInsufficientDataError(have, need int) error {
	return fmt.Errorf("%w: have %d observations, need more than %d", ErrInsufficientData, have, need)
}

func NewShapeMismatchError(what string, left, right int) error {
	return fmt.Errorf("%w: %s (%d vs %d)", ErrShapeMismatch, what, left, right)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsShapeMismatchError(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
