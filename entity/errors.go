package entity

import (
	"errors"
	"fmt"
)

// ErrConstruction is matched by every *ConstructionError.
var ErrConstruction = errors.New("dine: invalid entity request")

// ConstructionError reports a request whose shape breaks the request
// invariants. It is always returned by a constructor, never by a store call.
type ConstructionError struct {
	ID     string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("dine: invalid entity request %q: %s", e.ID, e.Reason)
}

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

func invalid(id, format string, args ...any) error {
	return &ConstructionError{ID: id, Reason: fmt.Sprintf(format, args...)}
}
