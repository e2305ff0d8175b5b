package schema

import "reflect"

// Kind is the storage category of a field's declared type.
type Kind uint8

const (
	KindInvalid    Kind = iota
	KindInt             // signed and unsigned integers
	KindFloat           // float32, float64
	KindBool            // bool
	KindString          // string and named string types
	KindCollection      // slices, arrays, maps (sets are map[T]struct{})
	KindRecord          // structs, e.g. time.Time or tuple-like structs
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindCollection:
		return "collection"
	case KindRecord:
		return "record"
	default:
		return "invalid"
	}
}

// Scalar reports whether values of the kind are stored as native scalars.
func (k Kind) Scalar() bool {
	return k == KindInt || k == KindFloat || k == KindBool
}

// Structured reports whether values of the kind are stored as structured payloads.
func (k Kind) Structured() bool {
	return k == KindCollection || k == KindRecord
}

// kindOf classifies a non-pointer Go type.
func kindOf(t reflect.Type) Kind {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	case reflect.Slice, reflect.Array, reflect.Map:
		return KindCollection
	case reflect.Struct:
		return KindRecord
	default:
		return KindInvalid
	}
}
