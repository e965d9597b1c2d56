package modelkit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/burugo/modelkit/internal/utils"
	"github.com/burugo/modelkit/schema"
)

// Method is a prototype entry that can be invoked on an instance with Call.
type Method func(ctx context.Context, inst *Instance, args ...any) (any, error)

// Instance is one record of a model. It is owned by the caller and not safe for
// concurrent mutation.
type Instance struct {
	model *Model
	attrs map[string]any
}

// New constructs an instance of m from data.
//
// Declared fields take their input value, else their default. Undeclared input is
// dropped. When identity is enabled and no identity was supplied, a new one is generated.
// Timestamps are not set; only Create and Update maintain them.
func (m *Model) New(data map[string]any) *Instance {
	inst := m.build(data)
	if field, ok := m.UniqueID(); ok && utils.IsEmpty(inst.attrs[field]) {
		inst.attrs[field] = m.IDGenerator().NewID()
	}
	return inst
}

// fromDocument wraps a stored document. No identity is generated for it, and
// timestamps that JSON-backed drivers return as strings are decoded.
func (m *Model) fromDocument(doc Document) *Instance {
	inst := m.build(doc)
	for _, field := range []string{FieldCreated, FieldModified} {
		s, ok := inst.attrs[field].(string)
		declared := m.schema[field]
		if !ok || declared == nil || declared.EffectiveType() != schema.TypeAny {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			inst.attrs[field] = t
		}
	}
	return inst
}

func (m *Model) build(data map[string]any) *Instance {
	input := utils.CopyMap(data)
	attrs := schema.Materialize(m.schema, input)

	if field, ok := m.UniqueID(); ok && utils.IsEmpty(attrs[field]) {
		if supplied := input[field]; !utils.IsEmpty(supplied) {
			// identity fields need not be declared
			attrs[field] = supplied
		}
	}
	return &Instance{model: m, attrs: attrs}
}

// Model returns the model the instance was constructed from.
func (i *Instance) Model() *Model {
	return i.model
}

// InstanceOf reports whether the instance's model is m or descends from m.
func (i *Instance) InstanceOf(m *Model) bool {
	return i.model.IsA(m)
}

// Get returns an attribute. Nested attributes are addressed with dots ("address.city").
func (i *Instance) Get(name string) (any, bool) {
	return utils.GetPath(i.attrs, name)
}

// Set assigns a declared attribute and reports whether it was declared. Nested
// attributes are addressed with dots; intermediate objects are created as needed.
func (i *Instance) Set(name string, value any) bool {
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		if idField, ok := i.model.UniqueID(); ok && name == idField {
			i.attrs[name] = value
			return true
		}
	}

	s := i.model.schema
	target := i.attrs
	for idx, part := range parts {
		field, declared := s[part]
		if !declared {
			return false
		}
		if idx == len(parts)-1 {
			target[part] = value
			return true
		}
		if !field.IsComposite() {
			return false
		}
		next, ok := target[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			target[part] = next
		}
		target = next
		s = field.Properties
	}
	return false
}

// Unset removes a top-level attribute.
func (i *Instance) Unset(name string) {
	delete(i.attrs, name)
}

// Attrs returns a deep copy of the attributes.
func (i *Instance) Attrs() map[string]any {
	return utils.CopyMap(i.attrs)
}

// ID returns the identity value as a string, or "" when identity is disabled or unset.
func (i *Instance) ID() string {
	field, ok := i.model.UniqueID()
	if !ok {
		return ""
	}
	switch v := i.attrs[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Created returns the creation time, or the zero time when unset.
func (i *Instance) Created() time.Time {
	t, _ := i.attrs[FieldCreated].(time.Time)
	return t
}

// Modified returns the last modification time, or the zero time when unset.
func (i *Instance) Modified() time.Time {
	t, _ := i.attrs[FieldModified].(time.Time)
	return t
}

// Lookup resolves name against the attributes, then the prototype chain of the model.
func (i *Instance) Lookup(name string) (any, bool) {
	if v, ok := i.attrs[name]; ok {
		return v, true
	}
	return i.model.lookupProto(name)
}

// Call invokes the prototype Method registered under name.
func (i *Instance) Call(ctx context.Context, name string, args ...any) (any, error) {
	v, ok := i.model.lookupProto(name)
	if !ok {
		return nil, fmt.Errorf("modelkit: %s has no method %q", i.model.name, name)
	}
	var method Method
	switch fn := v.(type) {
	case Method:
		method = fn
	case func(context.Context, *Instance, ...any) (any, error):
		method = fn
	default:
		return nil, fmt.Errorf("modelkit: %s.%s is a %T, not a method", i.model.name, name, v)
	}
	return method(ctx, i, args...)
}

// Validate checks the attributes with the model's interpreter. It does not run hooks.
func (i *Instance) Validate() *schema.Result {
	return i.model.Interpreter().Validate(i.model.schema, i.attrs)
}

// MarshalJSON encodes the attributes: identity first, then the other fields in lexical
// order, then the timestamps.
func (i *Instance) MarshalJSON() ([]byte, error) {
	out := utils.NewOrderedMap()
	if field, ok := i.model.UniqueID(); ok {
		if v, ok := i.attrs[field]; ok {
			out.Set(field, v)
		}
	}
	for _, key := range utils.SortedKeys(i.attrs) {
		if key != FieldCreated && key != FieldModified {
			out.Set(key, i.attrs[key])
		}
	}
	for _, key := range []string{FieldCreated, FieldModified} {
		if v, ok := i.attrs[key]; ok {
			out.Set(key, v)
		}
	}
	return out.MarshalJSON()
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s(%s)", i.model.name, i.ID())
}

// document returns the representation handed to the backend.
func (i *Instance) document() Document {
	return utils.CopyMap(i.attrs)
}

// identityQuery selects the stored document of this instance by identity.
func (i *Instance) identityQuery() (Query, bool) {
	field, ok := i.model.UniqueID()
	if !ok || utils.IsEmpty(i.attrs[field]) {
		return nil, false
	}
	return Query{field: i.attrs[field]}, true
}
