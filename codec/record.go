package codec

import (
	"fmt"
	"reflect"

	"github.com/jacentio/dine/schema"
	"github.com/jacentio/dine/sink"
)

// EncodeRecord renders a whole record as a field map keyed by field key.
// Unset nullable fields and optional fields holding their default are left
// out. Required fields are always present.
func EncodeRecord(s *schema.Schema, record any) (map[string]sink.Value, error) {
	rv, err := s.ValidateRecord(record)
	if err != nil {
		return nil, err
	}

	out := make(map[string]sink.Value, len(s.Fields()))
	for _, f := range s.Fields() {
		fv := f.Get(rv)
		if Absent(f, fv) || s.IsDefault(f, fv) {
			continue
		}
		v, err := EncodeField(s, f, fv)
		if err != nil {
			return nil, err
		}
		out[FieldKey(f.Name)] = v
	}
	return out, nil
}

// DecodeRecord rebuilds a record from a field map. Fields missing from the
// map take their default; a missing required field is a validation error.
// Keys that match no field are ignored.
func DecodeRecord(s *schema.Schema, fields map[string]sink.Value) (reflect.Value, error) {
	out := s.New()
	for _, f := range s.Fields() {
		raw, ok := fields[FieldKey(f.Name)]
		if !ok {
			if f.Required {
				return reflect.Value{}, &schema.ValidationError{Schema: s.Name(), Field: f.Name,
					Err: fmt.Errorf("required field is missing")}
			}
			continue
		}
		v, err := DecodeField(s, f, raw)
		if err != nil {
			return reflect.Value{}, err
		}
		f.Get(out).Set(v)
	}

	if _, err := s.ValidateRecord(out.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}
