package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	tagName      = "feature"
	rulesTagName = "validate"
	optionalOpt  = "optional"
)

var timeType = reflect.TypeFor[time.Time]()

// ErrUnknownField is returned when a field name is not part of a schema.
var ErrUnknownField = errors.New("dine: unknown field")

// Field describes one stored field of a record.
type Field struct {
	// Name is the stored field name. It is hashed into the field key.
	Name string

	// GoName is the name of the struct field.
	GoName string

	// Kind is the storage category of the declared type.
	Kind Kind

	// Type is the declared Go type, a pointer type for nullable fields.
	Type reflect.Type

	// Nullable is true for pointer fields. A nil pointer is stored as absent.
	Nullable bool

	// Required fields have no default and are always stored.
	Required bool

	// Rules holds the validator tag of the field.
	Rules string

	index []int
	def   reflect.Value
}

// Default returns a copy of the default value of an optional field, or nil
// for required fields.
func (f Field) Default() any {
	if f.Required {
		return nil
	}
	return f.newDefault().Interface()
}

// HasDefault reports whether the field carries a default.
func (f Field) HasDefault() bool {
	return !f.Required
}

// DefaultValue returns a copy of the default as a reflect.Value of the
// declared type.
func (f Field) DefaultValue() reflect.Value {
	return f.newDefault()
}

// newDefault copies the default. Registration checked that it clones.
func (f Field) newDefault() reflect.Value {
	v, err := Clone(f.def)
	if err != nil {
		panic(err)
	}
	return v
}

// Get returns the field of record rv.
func (f Field) Get(rv reflect.Value) reflect.Value {
	return rv.FieldByIndex(f.index)
}

// Base returns the declared type with one level of pointer removed.
func (f Field) Base() reflect.Type {
	if f.Nullable {
		return f.Type.Elem()
	}
	return f.Type
}

// Schema is the registered descriptor of a record type.
type Schema struct {
	name     string
	typ      reflect.Type
	fields   []Field
	byName   map[string]int
	proto    reflect.Value
	validate *validator.Validate
}

// Name returns the registered type name used in store keys.
func (s *Schema) Name() string { return s.name }

// Type returns the Go struct type of the record.
func (s *Schema) Type() reflect.Type { return s.typ }

// Fields returns the stored fields in declaration order.
func (s *Schema) Fields() []Field { return s.fields }

// Field returns the field stored under name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// New returns an addressable record holding a copy of every default.
func (s *Schema) New() reflect.Value {
	out := reflect.New(s.typ).Elem()
	out.Set(s.proto)
	for _, f := range s.fields {
		if !f.Required && hasReferences(f.Type) {
			f.Get(out).Set(f.newDefault())
		}
	}
	return out
}

// IsDefault reports whether v equals the default of f.
// Required fields never have a default.
func (s *Schema) IsDefault(f Field, v reflect.Value) bool {
	if f.Required {
		return false
	}
	return reflect.DeepEqual(v.Interface(), f.def.Interface())
}

// Map renders record v as a map keyed by stored field name.
func (s *Schema) Map(v any) (map[string]any, error) {
	rv, err := s.record(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		out[f.Name] = f.Get(rv).Interface()
	}
	return out, nil
}

// Instance reports whether v is a record of this schema (or a non-nil pointer to one).
func (s *Schema) Instance(v any) bool {
	_, err := s.record(v)
	return err == nil
}

// ValidateRecord checks that v is a record of this schema and passes its rules.
// It returns the dereferenced record.
func (s *Schema) ValidateRecord(v any) (reflect.Value, error) {
	rv, err := s.record(v)
	if err != nil {
		return reflect.Value{}, &ValidationError{Schema: s.name, Err: err}
	}
	if err := s.validate.Struct(rv.Interface()); err != nil {
		return reflect.Value{}, &ValidationError{Schema: s.name, Err: err}
	}
	return rv, nil
}

// ValidateField checks a candidate value against the declared type and rules
// of one field. The returned value has exactly the declared type: values of
// the pointed-to type are wrapped for nullable fields and numbers are
// converted when that is lossless.
func (s *Schema) ValidateField(name string, v any) (reflect.Value, error) {
	f, ok := s.Field(name)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.name, name)
	}
	rv, err := coerce(f, v)
	if err != nil {
		return reflect.Value{}, &ValidationError{Schema: s.name, Field: f.Name, Err: err}
	}
	if err := s.CheckField(f, rv); err != nil {
		return reflect.Value{}, err
	}
	return rv, nil
}

// CheckField runs the rules of f against a value already of the declared type.
func (s *Schema) CheckField(f Field, rv reflect.Value) error {
	if rv.Type() != f.Type {
		return &ValidationError{Schema: s.name, Field: f.Name,
			Err: fmt.Errorf("expected %s, got %s", f.Type, rv.Type())}
	}
	if f.Rules != "" {
		if err := s.validate.Var(rv.Interface(), f.Rules); err != nil {
			return &ValidationError{Schema: s.name, Field: f.Name, Err: err}
		}
	}
	if f.Kind == KindRecord && !f.Base().ConvertibleTo(timeType) {
		if f.Nullable && rv.IsNil() {
			return nil
		}
		if err := s.validate.Struct(rv.Interface()); err != nil {
			return &ValidationError{Schema: s.name, Field: f.Name, Err: err}
		}
	}
	return nil
}

// record dereferences v and checks its type.
func (s *Schema) record(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Value{}, fmt.Errorf("expected %s, got nil", s.typ)
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("expected %s, got nil pointer", s.typ)
		}
		rv = rv.Elem()
	}
	if rv.Type() != s.typ {
		return reflect.Value{}, fmt.Errorf("expected %s, got %s", s.typ, rv.Type())
	}
	return rv, nil
}

// build derives the descriptor of struct type t.
func build(name string, t reflect.Type, proto reflect.Value, v *validator.Validate) (*Schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotRecord, t)
	}

	s := &Schema{
		name:     name,
		typ:      t,
		byName:   make(map[string]int),
		validate: v,
	}
	if !proto.IsValid() {
		proto = reflect.New(t).Elem()
	}
	base := reflect.New(t).Elem()
	base.Set(proto)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get(tagName)
		if tag == "-" {
			continue
		}

		fieldName, opts, _ := strings.Cut(tag, ",")
		if fieldName == "" {
			fieldName = sf.Name
		}

		f := Field{
			Name:   fieldName,
			GoName: sf.Name,
			Type:   sf.Type,
			Rules:  sf.Tag.Get(rulesTagName),
			index:  sf.Index,
		}

		elem := sf.Type
		if elem.Kind() == reflect.Pointer {
			f.Nullable = true
			elem = elem.Elem()
		}
		f.Kind = kindOf(elem)
		if f.Kind == KindInvalid {
			return nil, fmt.Errorf("%w: %s.%s has type %s", ErrUnsupportedField, t, sf.Name, sf.Type)
		}

		optional := false
		for _, opt := range strings.Split(opts, ",") {
			if strings.TrimSpace(opt) == optionalOpt {
				optional = true
			}
		}
		f.Required = !optional && !f.Nullable

		slot := base.FieldByIndex(sf.Index)
		if f.Required {
			slot.Set(reflect.Zero(sf.Type))
		} else {
			def, err := Clone(slot)
			if err != nil {
				return nil, fmt.Errorf("%w: default of %s.%s: %v", ErrUnsupportedField, t, sf.Name, err)
			}
			slot.Set(def)
		}
		f.def = slot

		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateField, t, f.Name)
		}
		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}

	s.proto = base
	return s, nil
}

// coerce converts v to the declared type of f.
func coerce(f Field, v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		if f.Nullable {
			return reflect.Zero(f.Type), nil
		}
		return reflect.Value{}, fmt.Errorf("expected %s, got nil", f.Type)
	}
	if rv.Type() == f.Type {
		return rv, nil
	}
	if rv.Type().AssignableTo(f.Type) {
		out := reflect.New(f.Type).Elem()
		out.Set(rv)
		return out, nil
	}

	base := f.Base()
	inner := reflect.New(base).Elem()
	switch {
	case rv.Type().AssignableTo(base):
		inner.Set(rv)
	case (f.Kind == KindInt || f.Kind == KindFloat) && isNumber(rv.Kind()):
		if err := AssignNumber(inner, rv); err != nil {
			return reflect.Value{}, err
		}
	default:
		return reflect.Value{}, fmt.Errorf("expected %s, got %s", f.Type, rv.Type())
	}

	if !f.Nullable {
		return inner, nil
	}
	ptr := reflect.New(base)
	ptr.Elem().Set(inner)
	return ptr, nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// AssignNumber stores the number src into the settable numeric dst.
// It fails instead of truncating, overflowing or changing sign.
func AssignNumber(dst, src reflect.Value) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		switch src.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i = src.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u := src.Uint()
			if u > math.MaxInt64 {
				return fmt.Errorf("%d overflows %s", u, dst.Type())
			}
			i = int64(u)
		case reflect.Float32, reflect.Float64:
			fl := src.Float()
			if fl != math.Trunc(fl) || fl < math.MinInt64 || fl >= math.MaxInt64 {
				return fmt.Errorf("%v is not a valid %s", fl, dst.Type())
			}
			i = int64(fl)
		default:
			return fmt.Errorf("expected a number, got %s", src.Type())
		}
		if dst.OverflowInt(i) {
			return fmt.Errorf("%d overflows %s", i, dst.Type())
		}
		dst.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var u uint64
		switch src.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if src.Int() < 0 {
				return fmt.Errorf("%d is negative for %s", src.Int(), dst.Type())
			}
			u = uint64(src.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u = src.Uint()
		case reflect.Float32, reflect.Float64:
			fl := src.Float()
			if fl != math.Trunc(fl) || fl < 0 || fl >= math.MaxUint64 {
				return fmt.Errorf("%v is not a valid %s", fl, dst.Type())
			}
			u = uint64(fl)
		default:
			return fmt.Errorf("expected a number, got %s", src.Type())
		}
		if dst.OverflowUint(u) {
			return fmt.Errorf("%d overflows %s", u, dst.Type())
		}
		dst.SetUint(u)

	case reflect.Float32, reflect.Float64:
		var fl float64
		switch src.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fl = float64(src.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fl = float64(src.Uint())
		case reflect.Float32, reflect.Float64:
			fl = src.Float()
		default:
			return fmt.Errorf("expected a number, got %s", src.Type())
		}
		if dst.OverflowFloat(fl) {
			return fmt.Errorf("%v overflows %s", fl, dst.Type())
		}
		dst.SetFloat(fl)

	default:
		return fmt.Errorf("%s is not numeric", dst.Type())
	}
	return nil
}
