// Package apperr defines the error taxonomy shared by every circulation component.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Callers branch on these with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	ErrStorage  = errors.New("storage error")
)

// Specific failures, each wrapping exactly one kind.
var (
	ErrItemNotFound     = fmt.Errorf("item %w", ErrNotFound)
	ErrBorrowerNotFound = fmt.Errorf("borrower %w", ErrNotFound)
	ErrLoanNotFound     = fmt.Errorf("loan %w", ErrNotFound)
	ErrItemUnavailable  = fmt.Errorf("item unavailable: %w", ErrConflict)
	ErrDuplicateContact = fmt.Errorf("duplicate contact: %w", ErrConflict)
)

// Invalid returns an ErrInvalid carrying msg.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

// InvalidErr wraps a validation error as ErrInvalid, keeping its message.
func InvalidErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}

// Storage wraps an engine-level failure as ErrStorage. Errors that already
// belong to the taxonomy pass through unchanged.
func Storage(err error) error {
	if err == nil || IsKnown(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// IsKnown reports whether err already carries one of the error kinds.
func IsKnown(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrStorage)
}
