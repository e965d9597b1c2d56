package schema

import (
	"sort"
)

// Field type tags.
const (
	TypeAny     = "any"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Field specifies a single schema entry.
type Field struct {
	// Type is the type tag. Empty means "any", or "object" when Properties is set.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// Format refines string values (e.g. "email").
	Format string `yaml:"format,omitempty" json:"format,omitempty"`

	// Default is resolved at construction time when the field has no input value.
	Default Default `yaml:"-" json:"-"`

	// Properties turns the field into a composite with its own sub-fields.
	Properties Schema `yaml:"properties,omitempty" json:"properties,omitempty"`

	Required  bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Enum      []any    `yaml:"enum,omitempty" json:"enum,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	MinLength *int     `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength *int     `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	Minimum   *float64 `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum   *float64 `yaml:"maximum,omitempty" json:"maximum,omitempty"`
}

// IsComposite reports whether the field declares nested properties.
func (f *Field) IsComposite() bool {
	return f != nil && f.Properties != nil
}

// EffectiveType returns the type tag used for validation.
func (f *Field) EffectiveType() string {
	switch {
	case f.Type != "":
		return f.Type
	case f.IsComposite():
		return TypeObject
	default:
		return TypeAny
	}
}

// Clone returns a deep copy of the field. Defaults are shared; they are immutable.
func (f *Field) Clone() *Field {
	if f == nil {
		return nil
	}
	c := *f
	if f.Enum != nil {
		c.Enum = append([]any(nil), f.Enum...)
	}
	if f.Properties != nil {
		c.Properties = f.Properties.Clone()
	}
	return &c
}

// Schema maps field names to their specification.
type Schema map[string]*Field

// Clone returns a deep copy of the schema. A nil schema stays nil.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	c := make(Schema, len(s))
	for name, f := range s {
		c[name] = f.Clone()
	}
	return c
}

// Keys returns the field names in lexical order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether name is declared.
func (s Schema) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Merge returns a new schema holding base's fields with overlay's fields layered on top.
func Merge(base, overlay Schema) Schema {
	out := make(Schema, len(base)+len(overlay))
	for name, f := range base {
		out[name] = f.Clone()
	}
	for name, f := range overlay {
		out[name] = f.Clone()
	}
	return out
}
