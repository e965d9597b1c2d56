package schema

import (
	"fmt"
	"sync"

	"github.com/burugo/modelkit/internal/utils"
)

// Default is the default value of a field: either a Literal or a Generator.
type Default interface {
	Resolve() any
}

// Literal is a fixed default value. Maps and slices are copied on every resolve so
// instances never share them.
type Literal struct {
	Value any
}

// Resolve implements Default.
func (l Literal) Resolve() any {
	return utils.DeepCopy(l.Value)
}

// Generator is a zero-argument function invoked for each new instance.
type Generator func() any

// Resolve implements Default.
func (g Generator) Resolve() any {
	return g()
}

// Value wraps v as a Literal default.
func Value(v any) Default {
	return Literal{Value: v}
}

var (
	generators   = make(map[string]Generator)
	generatorsMu sync.RWMutex
)

// RegisterGenerator makes a generator available to YAML schemas under name
// (`generate: name`).
func RegisterGenerator(name string, g Generator) {
	generatorsMu.Lock()
	defer generatorsMu.Unlock()
	generators[name] = g
}

// LookupGenerator returns the generator registered under name.
func LookupGenerator(name string) (Generator, error) {
	generatorsMu.RLock()
	defer generatorsMu.RUnlock()
	g, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("schema: unknown generator %q", name)
	}
	return g, nil
}
