// Package apperr defines the error categories the services surface to
// their callers. Handlers map categories to HTTP status codes; anything
// outside the taxonomy is treated as an internal failure.
package apperr

import (
	"github.com/pkg/errors"
)

var (
	// ErrValidation marks bad input rejected before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced alert, donation, or other record
	// that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage marks an unavailable or failing persistence layer. It
	// is fatal to the enclosing call.
	ErrStorage = errors.New("storage unavailable")

	// ErrUnresolvedLocation marks a geocoding miss: provider failure,
	// timeout, or zero results. Callers proceed without coordinates.
	ErrUnresolvedLocation = errors.New("location could not be resolved")

	// ErrUpstream marks a non-fatal external service failure (mail
	// relay, payment processor). It never crosses a service boundary.
	ErrUpstream = errors.New("upstream service failed")

	// ErrInvalidTransition marks a status change not permitted from the
	// record's current state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Validation wraps a message as a validation error.
func Validation(msg string) error {
	return errors.Wrap(ErrValidation, msg)
}

// Validationf wraps a formatted message as a validation error.
func Validationf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// NotFound wraps a message as a not-found error.
func NotFound(msg string) error {
	return errors.Wrap(ErrNotFound, msg)
}

// Storage wraps a persistence failure into the storage category. The
// original cause stays in the chain, so errors.Is/As still reach the
// underlying driver error.
func Storage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(&storageError{cause: err}, msg)
}

type storageError struct {
	cause error
}

func (e *storageError) Error() string { return ErrStorage.Error() + ": " + e.cause.Error() }

func (e *storageError) Unwrap() error { return e.cause }

func (e *storageError) Is(target error) bool { return target == ErrStorage }

// IsValidation reports whether err is in the validation category.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is in the not-found category.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsStorage reports whether err is in the storage category.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }

// IsInvalidTransition reports whether err is in the invalid-transition
// category.
func IsInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }

// IsUnresolvedLocation reports whether err is a geocoding miss.
func IsUnresolvedLocation(err error) bool { return errors.Is(err, ErrUnresolvedLocation) }
