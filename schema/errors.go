package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("dine: validation failed")

	// ErrNotRecord is returned when registering a type that is not a struct.
	ErrNotRecord = errors.New("dine: record type must be a struct")

	// ErrUnsupportedField is returned when a record has a field whose type cannot be stored.
	ErrUnsupportedField = errors.New("dine: unsupported field type")

	// ErrDuplicateSchema is returned when a schema name or type is registered twice.
	ErrDuplicateSchema = errors.New("dine: schema already registered")

	// ErrDuplicateField is returned when two fields of a record share a stored name.
	ErrDuplicateField = errors.New("dine: duplicate field name")
)

// ValidationError reports a value that does not match a field's declared shape.
type ValidationError struct {
	Schema string
	Field  string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("dine: validation failed for %s: %v", e.Schema, e.Err)
	}
	return fmt.Sprintf("dine: validation failed for %s.%s: %v", e.Schema, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
