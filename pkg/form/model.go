package form

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownField is returned by SetField for names the schema does not define
var ErrUnknownField = errors.New("unknown form field")

// Model holds the in-progress values of one form session. It is not safe for concurrent use.
type Model struct {
	schema    *Schema
	values    map[string]string
	listeners []func(name string)
}

// NewModel seeds a model with the schema defaults evaluated at now
func NewModel(schema *Schema, now time.Time) *Model {
	values := make(map[string]string, len(schema.Fields))
	for _, f := range schema.Fields {
		if f.Default != nil {
			values[f.Name] = f.Default(now)
		} else {
			values[f.Name] = ""
		}
	}
	return &Model{schema: schema, values: values}
}

// Schema returns the schema the model was built from
func (m *Model) Schema() *Schema {
	return m.schema
}

// OnEdit registers fn to run after every successful SetField
func (m *Model) OnEdit(fn func(name string)) {
	m.listeners = append(m.listeners, fn)
}

// SetField stores value verbatim and applies the field's derivation
func (m *Model) SetField(name, value string) error {
	f, ok := m.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	m.values[name] = value
	if f.Derive != nil {
		for k, v := range f.Derive(value) {
			m.values[k] = v
		}
	}

	for _, fn := range m.listeners {
		fn(name)
	}
	return nil
}

// Value returns the current value of a field
func (m *Model) Value(name string) string {
	return m.values[name]
}

// Values returns a snapshot of every field value
func (m *Model) Values() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Invalid reports whether a field is currently flagged by its validation
func (m *Model) Invalid(name string) bool {
	f, ok := m.schema.Field(name)
	if !ok || f.Validate == nil {
		return false
	}
	return f.Validate(m.values[name], m.values)
}

// InvalidFields lists flagged fields in schema order
func (m *Model) InvalidFields() []string {
	var out []string
	for _, f := range m.schema.Fields {
		if m.Invalid(f.Name) {
			out = append(out, f.Name)
		}
	}
	return out
}

// Missing lists required fields that are empty or still on the placeholder
func (m *Model) Missing() []string {
	var out []string
	for _, f := range m.schema.Fields {
		if !f.Required {
			continue
		}
		v := m.values[f.Name]
		if v == "" || (f.Kind == KindSelect && v == Placeholder) {
			out = append(out, f.Name)
		}
	}
	return out
}

// OutOfRange lists bounded fields whose value falls outside the allowed window,
// in schema order. Empty values are left to Missing. A value that is not a
// clock time at all counts as out of range.
func (m *Model) OutOfRange() []string {
	var out []string
	for _, f := range m.schema.Fields {
		v := m.values[f.Name]
		if v == "" || !f.bounded() {
			continue
		}
		if !m.within(f, v) {
			out = append(out, f.Name)
		}
	}
	return out
}

func (f Field) bounded() bool {
	return f.Min != "" || f.Max != "" || f.MinField != ""
}

func (m *Model) within(f Field, value string) bool {
	at, ok := ParseClock(value)
	if !ok {
		return false
	}
	lower := f.Min
	if f.MinField != "" {
		lower = m.values[f.MinField]
	}
	// an unusable bound is ignored, as a browser ignores an invalid min or max
	if lo, ok := ParseClock(lower); ok && at < lo {
		return false
	}
	if hi, ok := ParseClock(f.Max); ok && at > hi {
		return false
	}
	return true
}
