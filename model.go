package modelkit

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/burugo/modelkit/clock"
	"github.com/burugo/modelkit/defaults"
	"github.com/burugo/modelkit/drivers/memory"
	"github.com/burugo/modelkit/internal/utils"
	"github.com/burugo/modelkit/schema"
)

// Implicit fields present in every model schema.
const (
	FieldID       = "_id"
	FieldCreated  = "created"
	FieldModified = "modified"
)

// Reserved static keys. They can also be set through Statics.Values or SetStatic.
const (
	StaticUniqueID    = "uniqueID"
	StaticTimestamps  = "timestamps"
	StaticInterpreter = "interpreter"
	StaticClock       = "clock"
	StaticIDGenerator = "idGenerator"
)

// Proto holds prototype entries shared by every instance of a model and its descendants.
// Method values can be invoked with Instance.Call.
type Proto map[string]any

// Statics configures a model at Extend time. Zero fields are inherited from the parent.
type Statics struct {
	// Name identifies the model in logs and metrics and derives its collection name.
	// Defaults to "model<N>".
	Name string

	// Schema declares the model's fields. It is required unless the parent model
	// already carries one, which is then inherited.
	Schema schema.Schema

	// UniqueID names the identity field. NoUniqueID disables identity generation.
	UniqueID   string
	NoUniqueID bool

	// Timestamps toggles created/modified maintenance. Use Bool to set it.
	Timestamps *bool

	Interpreter Interpreter
	Clock       Clock
	IDGenerator IDGenerator

	// Backend is used instead of a fresh one from the configured factory.
	Backend Backend

	// Values are arbitrary static values, looked up with Static.
	Values map[string]any
}

// Bool returns a pointer to b, for Statics.Timestamps.
func Bool(b bool) *bool {
	return &b
}

// --- Model ---

// Model is a model type: a schema, static configuration resolved through the parent
// chain, an ordered hook registry and a backend of its own.
type Model struct {
	name         string
	collection   string
	parent       *Model
	callerSchema schema.Schema
	schema       schema.Schema

	mu      sync.RWMutex
	backend Backend
	statics map[string]any
	proto   map[string]any
	hooks   *hookRegistry
}

// Base is the root model. Every model type is extended from Base or a descendant of it.
var Base = newBase()

var modelSeq atomic.Int64

func newBase() *Model {
	return &Model{
		name:       "Model",
		collection: "models",
		schema:     implicitSchema(),
		backend:    memory.New(),
		statics: map[string]any{
			StaticUniqueID:    FieldID,
			StaticTimestamps:  true,
			StaticInterpreter: schema.DefaultValidator,
			StaticClock:       clock.Real{},
			StaticIDGenerator: defaults.UUIDGenerator{},
		},
		proto: make(map[string]any),
		hooks: newHookRegistry(),
	}
}

func implicitSchema() schema.Schema {
	return schema.Schema{
		FieldID:       {Type: schema.TypeAny},
		FieldCreated:  {Type: schema.TypeAny},
		FieldModified: {Type: schema.TypeAny},
	}
}

// Extend creates a new model type descending from m.
//
// proto entries become prototype entries of the new type. statics configures it; its
// Schema is layered on top of the implicit _id, created and modified fields. Without a
// schema the call fails with *UndefinedSchemaError, unless m already has one to inherit.
func (m *Model) Extend(proto Proto, statics *Statics) (*Model, error) {
	if statics == nil {
		statics = &Statics{}
	}

	name := statics.Name
	if name == "" {
		name = fmt.Sprintf("model%d", modelSeq.Add(1))
	}

	callerSchema := statics.Schema
	if callerSchema == nil {
		if m.callerSchema == nil {
			return nil, &UndefinedSchemaError{Model: name}
		}
		callerSchema = m.callerSchema
	}

	child := &Model{
		name:         name,
		collection:   utils.CollectionName(name),
		parent:       m,
		callerSchema: callerSchema.Clone(),
		schema:       schema.Merge(implicitSchema(), callerSchema),
		statics:      make(map[string]any, len(statics.Values)),
		proto:        make(map[string]any, len(proto)),
		hooks:        m.hooks.clone(),
	}

	for k, v := range proto {
		child.proto[k] = v
	}
	for k, v := range statics.Values {
		child.statics[k] = v
	}
	switch {
	case statics.NoUniqueID:
		child.statics[StaticUniqueID] = false
	case statics.UniqueID != "":
		child.statics[StaticUniqueID] = statics.UniqueID
	}
	if statics.Timestamps != nil {
		child.statics[StaticTimestamps] = *statics.Timestamps
	}
	if statics.Interpreter != nil {
		child.statics[StaticInterpreter] = statics.Interpreter
	}
	if statics.Clock != nil {
		child.statics[StaticClock] = statics.Clock
	}
	if statics.IDGenerator != nil {
		child.statics[StaticIDGenerator] = statics.IDGenerator
	}

	child.backend = statics.Backend
	if child.backend == nil {
		backend, err := currentFactory()(child.collection)
		if err != nil {
			return nil, fmt.Errorf("modelkit: create backend for %s: %w", name, err)
		}
		child.backend = backend
	}

	return child, nil
}

// MustExtend is like Extend but panics on error.
func (m *Model) MustExtend(proto Proto, statics *Statics) *Model {
	child, err := m.Extend(proto, statics)
	if err != nil {
		panic(err)
	}
	return child
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// Collection returns the pluralised snake_case name used by backends.
func (m *Model) Collection() string {
	return m.collection
}

func (m *Model) String() string {
	return m.name
}

// Schema returns a copy of the effective schema: the implicit fields plus the
// caller-declared ones.
func (m *Model) Schema() schema.Schema {
	return m.schema.Clone()
}

// Superclass returns the parent model, or nil for Base.
func (m *Model) Superclass() *Model {
	return m.parent
}

// IsA reports whether m is ancestor or descends from it.
func (m *Model) IsA(ancestor *Model) bool {
	for t := m; t != nil; t = t.parent {
		if t == ancestor {
			return true
		}
	}
	return false
}

// Backend returns the backend this model persists through.
func (m *Model) Backend() Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backend
}

// SetBackend replaces the model's backend. Descendants are not affected.
func (m *Model) SetBackend(b Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backend = b
}

// --- Static and prototype resolution ---

// Static looks key up on m, then on each ancestor.
func (m *Model) Static(key string) (any, bool) {
	for t := m; t != nil; t = t.parent {
		t.mu.RLock()
		v, ok := t.statics[key]
		t.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// SetStatic sets a static value on m. Descendants without their own value see it.
func (m *Model) SetStatic(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statics[key] = value
}

// SetProto sets a prototype entry on m. Descendants without their own entry see it.
func (m *Model) SetProto(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proto[key] = value
}

func (m *Model) lookupProto(key string) (any, bool) {
	for t := m; t != nil; t = t.parent {
		t.mu.RLock()
		v, ok := t.proto[key]
		t.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// UniqueID returns the identity field name and whether identity generation is enabled.
func (m *Model) UniqueID() (string, bool) {
	v, _ := m.Static(StaticUniqueID)
	if field, ok := v.(string); ok && field != "" {
		return field, true
	}
	return "", false
}

// DisableUniqueID turns identity generation off for m and descendants without their own
// setting.
func (m *Model) DisableUniqueID() {
	m.SetStatic(StaticUniqueID, false)
}

// Timestamps reports whether created/modified are maintained.
func (m *Model) Timestamps() bool {
	v, _ := m.Static(StaticTimestamps)
	enabled, _ := v.(bool)
	return enabled
}

// Interpreter returns the validator used for this model.
func (m *Model) Interpreter() Interpreter {
	if v, ok := m.Static(StaticInterpreter); ok {
		if i, ok := v.(Interpreter); ok && i != nil {
			return i
		}
	}
	return schema.DefaultValidator
}

// Clock returns the time source used for timestamps.
func (m *Model) Clock() Clock {
	if v, ok := m.Static(StaticClock); ok {
		if c, ok := v.(Clock); ok && c != nil {
			return c
		}
	}
	return clock.Real{}
}

// IDGenerator returns the generator used for new identities.
func (m *Model) IDGenerator() IDGenerator {
	if v, ok := m.Static(StaticIDGenerator); ok {
		if g, ok := v.(IDGenerator); ok && g != nil {
			return g
		}
	}
	return defaults.UUIDGenerator{}
}
