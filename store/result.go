package store

// Result is the outcome of one retrieve request.
// The zero Result is the missing marker.
type Result struct {
	found bool
	value any
}

// Missing is the result of a request whose record or field is absent.
var Missing = Result{}

func found(v any) Result {
	return Result{found: true, value: v}
}

// Found reports whether the record or field exists.
func (r Result) Found() bool { return r.found }

// Value returns the decoded record or field value, or nil when missing.
// Records come back as values of their struct type, fields as values of
// their declared type.
func (r Result) Value() any { return r.value }

// As returns the result value as T. It reports false when the result is
// missing or holds another type.
func As[T any](r Result) (T, bool) {
	v, ok := r.value.(T)
	if !r.found {
		var zero T
		return zero, false
	}
	return v, ok
}
