package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Domain error types for the prediction service

var (
	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownModel indicates the requested model selector is not recognized
	ErrUnknownModel = errors.New("unknown model")

	// ErrModelNotLoaded indicates a model artifact failed to load or is absent
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a service dependency is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// MissingFieldsError reports which required payload fields were absent.
// The field list is kept sorted so error text is deterministic.
type MissingFieldsError struct {
	Fields []string
}

// NewMissingFields creates a MissingFieldsError from the given field names
func NewMissingFields(fields []string) *MissingFieldsError {
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)
	return &MissingFieldsError{Fields: sorted}
}

// Error implements the error interface
func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("Missing fields: %v", e.Fields)
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
