package schema

import (
	"fmt"
	"reflect"

	gojson "github.com/goccy/go-json"
)

// Clone returns a copy of v that shares no slices, maps or pointers with it.
// Values without references are returned as is. Other values are copied
// through their JSON form, the same form collections and nested records are
// stored in, so every storable value clones exactly.
func Clone(v reflect.Value) (reflect.Value, error) {
	if !hasReferences(v.Type()) {
		return v, nil
	}
	b, err := gojson.Marshal(v.Interface())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("clone %s: %w", v.Type(), err)
	}
	out := reflect.New(v.Type())
	if err := gojson.Unmarshal(b, out.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("clone %s: %w", v.Type(), err)
	}
	return out.Elem(), nil
}

// Copy returns an addressable copy of record rv whose stored fields share no
// memory with rv. Fields outside the schema are copied shallowly.
func (s *Schema) Copy(rv reflect.Value) (reflect.Value, error) {
	out := reflect.New(s.typ).Elem()
	out.Set(rv)
	for _, f := range s.fields {
		c, err := Clone(f.Get(rv))
		if err != nil {
			return reflect.Value{}, &ValidationError{Schema: s.name, Field: f.Name, Err: err}
		}
		f.Get(out).Set(c)
	}
	return out, nil
}

// hasReferences reports whether values of t can alias memory.
// time.Time only holds an immutable location and counts as a plain value.
func hasReferences(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	case reflect.Array:
		return hasReferences(t.Elem())
	case reflect.Struct:
		if t.ConvertibleTo(timeType) {
			return false
		}
		for i := 0; i < t.NumField(); i++ {
			if hasReferences(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
