package store

import "errors"

var (
	// ErrMissingDefault is returned when removing a single field that has no
	// default. The record would be left without a required field.
	ErrMissingDefault = errors.New("dine: field has no default and cannot be removed")

	// ErrInvalidRequest is returned when a request variant does not fit the
	// operation, such as a read reference passed to Put.
	ErrInvalidRequest = errors.New("dine: request does not fit the operation")

	// ErrBatchTooLarge is returned when a call carries more requests than
	// Config.MaxBatchSize.
	ErrBatchTooLarge = errors.New("dine: batch exceeds the maximum size")
)
