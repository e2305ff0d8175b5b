package schema

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Registry holds every record schema known to a store.
type Registry struct {
	mu       sync.RWMutex
	schemas  []*Schema
	byName   map[string]*Schema
	byType   map[reflect.Type]*Schema
	validate *validator.Validate
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas:  []*Schema{},
		byName:   make(map[string]*Schema),
		byType:   make(map[reflect.Type]*Schema),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Option configures a schema at registration.
type Option func(*options)

type options struct {
	name  string
	proto any
}

// WithName overrides the type name used in store keys.
// The default is the Go type name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDefaults sets the defaults of optional fields from proto.
// Values of required fields in proto are ignored.
func WithDefaults[T any](proto T) Option {
	return func(o *options) { o.proto = proto }
}

// Register derives the schema of record type T and adds it to r.
func Register[T any](r *Registry, opts ...Option) (*Schema, error) {
	t := reflect.TypeFor[T]()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = t.Name()
	}
	if o.name == "" {
		return nil, fmt.Errorf("%w: %s has no name, use WithName", ErrNotRecord, t)
	}

	var proto reflect.Value
	if o.proto != nil {
		proto = reflect.ValueOf(o.proto)
		if proto.Type() != t {
			return nil, fmt.Errorf("dine: defaults for %s have type %s", t, proto.Type())
		}
	}

	s, err := build(o.name, t, proto, r.validate)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[s.name]; ok {
		return nil, fmt.Errorf("%w: name %q", ErrDuplicateSchema, s.name)
	}
	if _, ok := r.byType[t]; ok {
		return nil, fmt.Errorf("%w: type %s", ErrDuplicateSchema, t)
	}
	r.schemas = append(r.schemas, s)
	r.byName[s.name] = s
	r.byType[t] = s
	return s, nil
}

// MustRegister is like Register but panics on error.
// It is meant for package-level registration.
func MustRegister[T any](r *Registry, opts ...Option) *Schema {
	s, err := Register[T](r, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Of returns the schema registered for T.
func Of[T any](r *Registry) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byType[reflect.TypeFor[T]()]
	return s, ok
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// SchemaOf returns the schema of record v. Pointers to records resolve to
// the record's schema.
func (r *Registry) SchemaOf(v any) (*Schema, bool) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byType[t]
	return s, ok
}

// Schemas returns all registered schemas ordered by name.
func (r *Registry) Schemas() []*Schema {
	r.mu.RLock()
	out := make([]*Schema, len(r.schemas))
	copy(out, r.schemas)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}
