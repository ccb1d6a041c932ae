package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an update or delete references an unknown id.
	ErrNotFound = errors.New("employee not found")

	// ErrInvalidFormat is returned when an import payload cannot be parsed.
	// Nothing is stored when it is returned.
	ErrInvalidFormat = errors.New("invalid import format")

	// ErrInvalidInput is returned when a create or update body fails the
	// minimal shape checks.
	ErrInvalidInput = errors.New("invalid employee input")

	// ErrInvalidQuery is returned for an unknown filter, sort or export option.
	ErrInvalidQuery = errors.New("invalid query option")
)

func fieldError(field string, err error) error {
	return fmt.Errorf("%s: %w", field, err)
}

// missingColumnsError reports the required CSV columns absent from a header.
type missingColumnsError struct {
	columns []string
}

func (e *missingColumnsError) Error() string {
	return fmt.Sprintf("missing required column(s) %v", e.columns)
}

func (e *missingColumnsError) Unwrap() error {
	return ErrInvalidFormat
}
