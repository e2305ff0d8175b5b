// Package codec converts record fields to and from sink values.
//
// Integers, floats and booleans are stored as native scalars. Strings are
// stored as their UTF-8 bytes. Collections and nested records are stored as
// JSON documents. Decoding is lenient about the scalar form a sink hands
// back: text that parses as the declared type is accepted, and integers and
// floats convert into each other when no precision is lost.
package codec

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/jacentio/dine/internal/keyhash"
	"github.com/jacentio/dine/schema"
	"github.com/jacentio/dine/sink"
)

// FieldKey returns the key a field is stored under inside a record's hash.
func FieldKey(name string) string {
	return string(keyhash.Field(name))
}

// Absent reports whether v is an unset nullable value.
// Absent values are never written.
func Absent(f schema.Field, v reflect.Value) bool {
	return f.Nullable && v.IsNil()
}

// EncodeField renders v, a value of the field's declared type, for storage.
func EncodeField(s *schema.Schema, f schema.Field, v reflect.Value) (sink.Value, error) {
	if Absent(f, v) {
		return sink.Value{}, &schema.ValidationError{Schema: s.Name(), Field: f.Name,
			Err: fmt.Errorf("cannot encode nil")}
	}
	if f.Nullable {
		v = v.Elem()
	}

	switch f.Kind {
	case schema.KindInt:
		switch v.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u := v.Uint()
			if u > math.MaxInt64 {
				return sink.Value{}, &schema.ValidationError{Schema: s.Name(), Field: f.Name,
					Err: fmt.Errorf("%d overflows int64", u)}
			}
			return sink.Int(int64(u)), nil
		default:
			return sink.Int(v.Int()), nil
		}
	case schema.KindFloat:
		return sink.Float(v.Float()), nil
	case schema.KindBool:
		return sink.Bool(v.Bool()), nil
	case schema.KindString:
		return sink.String(v.String()), nil
	case schema.KindCollection, schema.KindRecord:
		b, err := gojson.Marshal(v.Interface())
		if err != nil {
			return sink.Value{}, &schema.ValidationError{Schema: s.Name(), Field: f.Name, Err: err}
		}
		return sink.Bytes(b), nil
	default:
		return sink.Value{}, &schema.ValidationError{Schema: s.Name(), Field: f.Name,
			Err: fmt.Errorf("unsupported kind %s", f.Kind)}
	}
}

// DecodeField rebuilds a value of the field's declared type from raw and
// checks it against the field's rules.
func DecodeField(s *schema.Schema, f schema.Field, raw sink.Value) (reflect.Value, error) {
	inner := reflect.New(f.Base()).Elem()
	if err := decodeInto(f.Kind, inner, raw); err != nil {
		return reflect.Value{}, &schema.ValidationError{Schema: s.Name(), Field: f.Name, Err: err}
	}

	out := inner
	if f.Nullable {
		out = reflect.New(f.Base())
		out.Elem().Set(inner)
	}
	if err := s.CheckField(f, out); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func decodeInto(kind schema.Kind, dst reflect.Value, raw sink.Value) error {
	switch kind {
	case schema.KindInt:
		switch raw.Kind() {
		case sink.KindInt:
			return schema.AssignNumber(dst, reflect.ValueOf(raw.Int()))
		case sink.KindFloat:
			return schema.AssignNumber(dst, reflect.ValueOf(raw.Float()))
		case sink.KindBytes:
			return parseNumber(dst, string(raw.Bytes()))
		}

	case schema.KindFloat:
		switch raw.Kind() {
		case sink.KindInt:
			return schema.AssignNumber(dst, reflect.ValueOf(raw.Int()))
		case sink.KindFloat:
			return schema.AssignNumber(dst, reflect.ValueOf(raw.Float()))
		case sink.KindBytes:
			return parseNumber(dst, string(raw.Bytes()))
		}

	case schema.KindBool:
		switch raw.Kind() {
		case sink.KindBool:
			dst.SetBool(raw.Bool())
			return nil
		case sink.KindInt:
			if raw.Int() != 0 && raw.Int() != 1 {
				return fmt.Errorf("%d is not a bool", raw.Int())
			}
			dst.SetBool(raw.Int() == 1)
			return nil
		case sink.KindBytes:
			b, err := strconv.ParseBool(string(raw.Bytes()))
			if err != nil {
				return err
			}
			dst.SetBool(b)
			return nil
		}

	case schema.KindString:
		dst.SetString(raw.Text())
		return nil

	case schema.KindCollection, schema.KindRecord:
		if raw.Kind() != sink.KindBytes {
			return fmt.Errorf("expected a JSON payload, got %s", raw.Kind())
		}
		return gojson.Unmarshal(raw.Bytes(), dst.Addr().Interface())
	}
	return fmt.Errorf("cannot decode %s into %s", raw.Kind(), dst.Type())
}

// parseNumber reads text written by a text-only store.
func parseNumber(dst reflect.Value, text string) error {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return schema.AssignNumber(dst, reflect.ValueOf(i))
	}
	if u, err := strconv.ParseUint(text, 10, 64); err == nil {
		return schema.AssignNumber(dst, reflect.ValueOf(u))
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", text)
	}
	return schema.AssignNumber(dst, reflect.ValueOf(f))
}
