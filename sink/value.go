package sink

import (
	"bytes"
	"math"
	"strconv"
)

// Kind is the storage representation of a Value.
type Kind uint8

const (
	KindBytes Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a field payload: either raw bytes or a native scalar.
// The zero Value is an empty byte payload.
type Value struct {
	kind Kind
	b    []byte
	n    uint64
}

// Bytes returns a byte payload. The slice is not copied.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, b: b}
}

// String returns a byte payload holding s.
func String(s string) Value {
	return Value{kind: KindBytes, b: []byte(s)}
}

// Int returns an integer scalar.
func Int(i int64) Value {
	return Value{kind: KindInt, n: uint64(i)}
}

// Float returns a floating point scalar.
func Float(f float64) Value {
	return Value{kind: KindFloat, n: math.Float64bits(f)}
}

// Bool returns a boolean scalar.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.n = 1
	}
	return v
}

// Kind returns the representation of v.
func (v Value) Kind() Kind { return v.kind }

// Bytes returns the byte payload, or nil for scalars.
func (v Value) Bytes() []byte { return v.b }

// Int returns the integer scalar.
func (v Value) Int() int64 { return int64(v.n) }

// Float returns the floating point scalar.
func (v Value) Float() float64 { return math.Float64frombits(v.n) }

// Bool returns the boolean scalar.
func (v Value) Bool() bool { return v.n != 0 }

// Text renders v the way text-only stores hold it.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.Int(), 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool())
	default:
		return string(v.b)
	}
}

// Clone returns a copy of v that shares no memory with it.
func (v Value) Clone() Value {
	if v.b != nil {
		v.b = bytes.Clone(v.b)
	}
	return v
}

// Equal reports whether v and o have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindBytes {
		return bytes.Equal(v.b, o.b)
	}
	return v.n == o.n
}

// CloneFields deep-copies a field map.
func CloneFields(fields map[string]Value) map[string]Value {
	out := make(map[string]Value, len(fields))
	for k, v := range fields {
		out[k] = v.Clone()
	}
	return out
}
