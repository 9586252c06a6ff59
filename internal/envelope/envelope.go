package envelope

import (
	"fmt"
	"strings"
)

// WrapFunc converts a raw extracted value into a typed view.
//
// When a field's raw value is a []any, the wrapper is applied to each
// element instead, allowing declarative composition of nested
// envelopes (a list response field wraps each element as a record).
type WrapFunc func(value any) (any, error)

// Field declares one named accessor on an envelope type: a key path
// into the payload, whether the path must resolve, and an optional
// wrapper applied to the extracted value.
type Field struct {
	Name     string
	Path     []string
	Required bool
	Wrap     WrapFunc
}

// Schema is the static field table of an envelope type, built once at
// package init, never at runtime.
type Schema struct {
	fields []Field
}

// NewSchema creates a schema from the given field declarations.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{fields: make([]Field, 0, len(fields))}
	return s.Extend(fields...)
}

// Extend returns a new schema with the parent's fields plus the given
// ones. A field with an already-declared name replaces the parent's
// declaration. The parent is not modified; this is how envelope
// subtypes inherit their parents' fields.
func (s *Schema) Extend(fields ...Field) *Schema {
	child := &Schema{fields: make([]Field, len(s.fields), len(s.fields)+len(fields))}
	copy(child.fields, s.fields)

	for _, f := range fields {
		replaced := false
		for i := range child.fields {
			if child.fields[i].Name == f.Name {
				child.fields[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			child.fields = append(child.fields, f)
		}
	}
	return child
}

// FieldNames returns the declared field names in declaration order,
// inherited fields first.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Envelope is an immutable typed view over one parsed payload.
//
// Construction deep-copies the payload; that is the only place
// mutation is prevented, so accessors never defensively copy. All
// fields are extracted (and wrapped) exactly once at construction,
// making every Get referentially stable.
type Envelope struct {
	schema  *Schema
	payload map[string]any
	values  map[string]any
}

// New wraps a payload in an immutable envelope for the given schema.
//
// Every declared field is resolved eagerly. A required field whose
// path does not fully resolve, or an optional field whose path breaks
// before the final key, fails with a *MissingFieldError.
//
// Parameters:
//   - schema: The envelope type's field table
//   - payload: Parsed JSON object; the caller keeps its copy and may
//     mutate it freely afterwards
//
// Returns:
//   - *Envelope: Immutable view
//   - error: *MissingFieldError on the first unresolvable field, or a
//     wrapper's error
func New(schema *Schema, payload map[string]any) (*Envelope, error) {
	frozen, ok := deepCopyValue(payload).(map[string]any)
	if !ok {
		frozen = map[string]any{}
	}

	e := &Envelope{
		schema:  schema,
		payload: frozen,
		values:  make(map[string]any, len(schema.fields)),
	}

	for _, f := range schema.fields {
		value, err := extract(frozen, f.Path, f.Required)
		if err != nil {
			return nil, err
		}
		if value != nil && f.Wrap != nil {
			value, err = applyWrap(f.Wrap, value)
			if err != nil {
				return nil, fmt.Errorf("wrapping field %q: %w", f.Name, err)
			}
		}
		e.values[f.Name] = value
	}

	return e, nil
}

// extract walks the payload through each key of path in order.
//
// A missing key fails with *MissingFieldError, except when the field is
// optional and only the final key is missing, which yields nil. An
// intermediate value that is not an object counts as a missing key:
// the parent path must exist.
func extract(payload map[string]any, path []string, required bool) (any, error) {
	current := any(payload)

	for i, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, &MissingFieldError{Path: path, Key: key, Payload: payload}
		}

		value, exists := obj[key]
		if !exists {
			if !required && i == len(path)-1 {
				return nil, nil
			}
			return nil, &MissingFieldError{Path: path, Key: key, Payload: payload}
		}
		current = value
	}

	return current, nil
}

// applyWrap applies a wrapper to a value, per-element if the value is a
// sequence.
func applyWrap(wrap WrapFunc, value any) (any, error) {
	list, ok := value.([]any)
	if !ok {
		return wrap(value)
	}

	wrapped := make([]any, len(list))
	for i, el := range list {
		w, err := wrap(el)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		wrapped[i] = w
	}
	return wrapped, nil
}

// Get returns a declared field's extracted value.
//
// Accessing an undeclared name is a programming error and panics.
// Optional fields that were absent return nil.
func (e *Envelope) Get(name string) any {
	value, declared := e.values[name]
	if !declared {
		panic(fmt.Sprintf("envelope: field %q is not declared on this type (have %s)",
			name, strings.Join(e.schema.FieldNames(), ", ")))
	}
	return value
}

// Has reports whether a declared field resolved to a value.
func (e *Envelope) Has(name string) bool {
	return e.Get(name) != nil
}

// Fields returns the declared field names, inherited ones included.
func (e *Envelope) Fields() []string {
	return e.schema.FieldNames()
}

// Payload returns the envelope's frozen payload copy.
//
// The copy was made at construction; callers must treat it as
// read-only, which every accessor already does.
func (e *Envelope) Payload() map[string]any {
	return e.payload
}

// Describe renders a debug view listing each declared field and its
// extracted value, one per line, in declaration order.
func (e *Envelope) Describe() string {
	var b strings.Builder
	for _, f := range e.schema.fields {
		fmt.Fprintf(&b, "%s: %v\n", f.Name, e.values[f.Name])
	}
	return b.String()
}

// deepCopyValue recursively copies JSON-shaped data (maps, slices,
// scalars). Scalars are immutable in Go and shared as-is.
func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, el := range v {
			out[k] = deepCopyValue(el)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = deepCopyValue(el)
		}
		return out
	default:
		return v
	}
}
