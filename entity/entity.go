// Package entity models a single store request: which record it addresses
// and whether it carries a value to write or only points at what to read or
// delete.
//
// A request addresses either a whole record or one field of it. Requests are
// validated when they are built, so a store call never sees an ill-formed one.
package entity

import (
	"fmt"
	"reflect"

	"github.com/jacentio/dine/codec"
	"github.com/jacentio/dine/internal/keyhash"
	"github.com/jacentio/dine/schema"
)

// DefaultVersion is the schema version every request is keyed under.
const DefaultVersion = "v0"

// Kind selects the variant of a Request.
type Kind uint8

const (
	KindInvalid    Kind = iota
	KindWriteFull       // carries a whole record
	KindWriteField      // carries one field value
	KindReadFull        // references a whole record
	KindReadField       // references one field
)

func (k Kind) String() string {
	switch k {
	case KindWriteFull:
		return "write"
	case KindWriteField:
		return "write-field"
	case KindReadFull:
		return "read"
	case KindReadField:
		return "read-field"
	default:
		return "invalid"
	}
}

// Write reports whether the request carries a value.
func (k Kind) Write() bool { return k == KindWriteFull || k == KindWriteField }

// Read reports whether the request is a reference. References are used for
// both reads and deletes.
func (k Kind) Read() bool { return k == KindReadFull || k == KindReadField }

// Request is one unit of store work. The zero Request is invalid.
type Request struct {
	kind   Kind
	id     string
	schema *schema.Schema
	field  string
	value  reflect.Value
}

// Spec is the loose form accepted by New.
type Spec struct {
	// Value is a record to write, or a field value when Field is set.
	Value any

	// Schema references the record type to read, delete or partially write.
	Schema *schema.Schema

	// Field narrows the request to one field. It requires Schema.
	Field string
}

// New builds a request from its loose form:
//
//   - Value alone writes a whole record of a type registered in reg.
//   - Schema alone reads or deletes a whole record.
//   - Schema and Field read or delete one field.
//   - Schema, Field and Value write one field.
//
// Any other combination is a *ConstructionError.
func New(reg *schema.Registry, id string, spec Spec) (Request, error) {
	hasValue := spec.Value != nil

	switch {
	case spec.Field != "" && spec.Schema == nil:
		return Request{}, invalid(id, "field %q needs a schema", spec.Field)
	case hasValue && spec.Schema != nil && spec.Field == "":
		return Request{}, invalid(id, "a value and a schema are mutually exclusive without a field")
	case !hasValue && spec.Schema == nil:
		return Request{}, invalid(id, "either a value or a schema is required")
	case spec.Field != "" && hasValue:
		return WriteField(id, spec.Schema, spec.Field, spec.Value)
	case spec.Field != "":
		return ReadField(id, spec.Schema, spec.Field)
	case hasValue:
		return Write(reg, id, spec.Value)
	default:
		return Read(id, spec.Schema)
	}
}

// Write builds a request that stores the whole record value.
// The record is validated against its schema and copied before the request is
// returned, so later changes to value do not reach the request.
func Write(reg *schema.Registry, id string, value any) (Request, error) {
	if id == "" {
		return Request{}, invalid(id, "empty id")
	}
	switch value.(type) {
	case nil:
		return Request{}, invalid(id, "nil record")
	case reflect.Type, *schema.Schema:
		return Request{}, invalid(id, "value is a type, not a record; reference it with a schema")
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Request{}, invalid(id, "nil record")
	}
	if reg == nil {
		return Request{}, invalid(id, "no registry to resolve %T", value)
	}

	s, ok := reg.SchemaOf(value)
	if !ok {
		return Request{}, invalid(id, "%T is not a registered record type", value)
	}
	rv, err := s.ValidateRecord(value)
	if err != nil {
		return Request{}, err
	}

	record, err := s.Copy(rv)
	if err != nil {
		return Request{}, err
	}
	return Request{kind: KindWriteFull, id: id, schema: s, value: record}, nil
}

// WriteField builds a request that stores one field of a record.
// A nil value is rejected; remove the field instead.
func WriteField(id string, s *schema.Schema, field string, value any) (Request, error) {
	f, err := lookup(id, s, field)
	if err != nil {
		return Request{}, err
	}
	if value == nil {
		return Request{}, &schema.ValidationError{Schema: s.Name(), Field: f.Name,
			Err: fmt.Errorf("nil value; delete the field instead")}
	}

	rv, err := s.ValidateField(f.Name, value)
	if err != nil {
		return Request{}, err
	}
	if codec.Absent(f, rv) {
		return Request{}, &schema.ValidationError{Schema: s.Name(), Field: f.Name,
			Err: fmt.Errorf("nil value; delete the field instead")}
	}
	if rv, err = schema.Clone(rv); err != nil {
		return Request{}, &schema.ValidationError{Schema: s.Name(), Field: f.Name, Err: err}
	}
	return Request{kind: KindWriteField, id: id, schema: s, field: f.Name, value: rv}, nil
}

// Read builds a reference to a whole record.
func Read(id string, s *schema.Schema) (Request, error) {
	if id == "" {
		return Request{}, invalid(id, "empty id")
	}
	if s == nil {
		return Request{}, invalid(id, "nil schema")
	}
	return Request{kind: KindReadFull, id: id, schema: s}, nil
}

// ReadField builds a reference to one field of a record.
func ReadField(id string, s *schema.Schema, field string) (Request, error) {
	f, err := lookup(id, s, field)
	if err != nil {
		return Request{}, err
	}
	return Request{kind: KindReadField, id: id, schema: s, field: f.Name}, nil
}

// Must panics if err is non-nil.
func Must(r Request, err error) Request {
	if err != nil {
		panic(err)
	}
	return r
}

func lookup(id string, s *schema.Schema, field string) (schema.Field, error) {
	if id == "" {
		return schema.Field{}, invalid(id, "empty id")
	}
	if s == nil {
		return schema.Field{}, invalid(id, "nil schema")
	}
	f, ok := s.Field(field)
	if !ok {
		return schema.Field{}, invalid(id, "%s has no field %q", s.Name(), field)
	}
	return f, nil
}

// ID returns the caller-defined entity identifier.
func (r Request) ID() string { return r.id }

// Kind returns the request variant.
func (r Request) Kind() Kind { return r.kind }

// Schema returns the schema of the addressed record.
func (r Request) Schema() *schema.Schema { return r.schema }

// TypeName returns the registered name of the addressed record type.
func (r Request) TypeName() string {
	if r.schema == nil {
		return ""
	}
	return r.schema.Name()
}

// Version returns the schema version of the request.
func (r Request) Version() string { return DefaultVersion }

// Partial reports whether the request targets a single field.
func (r Request) Partial() bool { return r.field != "" }

// Field returns the targeted field name, or "" for whole-record requests.
func (r Request) Field() string { return r.field }

// FieldInfo returns the descriptor of the targeted field.
func (r Request) FieldInfo() (schema.Field, bool) {
	if r.field == "" || r.schema == nil {
		return schema.Field{}, false
	}
	return r.schema.Field(r.field)
}

// Value returns the carried record or field value, or nil for references.
// The value belongs to the request and must not be modified.
func (r Request) Value() any {
	if !r.value.IsValid() {
		return nil
	}
	return r.value.Interface()
}

// Reflect returns the carried value as validated. It is the zero
// reflect.Value for references.
func (r Request) Reflect() reflect.Value { return r.value }

// Key returns the store key of the addressed record.
func (r Request) Key() string {
	return string(keyhash.Entity(r.id, r.TypeName(), r.Version()))
}

// FieldKey returns the key of the targeted field, or "" for whole-record requests.
func (r Request) FieldKey() string {
	if r.field == "" {
		return ""
	}
	return codec.FieldKey(r.field)
}

func (r Request) String() string {
	if r.field == "" {
		return fmt.Sprintf("%s %s[%s]", r.kind, r.TypeName(), r.id)
	}
	return fmt.Sprintf("%s %s[%s].%s", r.kind, r.TypeName(), r.id, r.field)
}
