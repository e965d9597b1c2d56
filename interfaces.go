package modelkit

import (
	"github.com/burugo/modelkit/internal/interfaces"
	"github.com/burugo/modelkit/schema"
)

// Backend contracts, shared with the drivers.
type (
	Backend     = interfaces.Backend
	Document    = interfaces.Document
	Query       = interfaces.Query
	Lister      = interfaces.Lister
	Inspector   = interfaces.Inspector
	Clock       = interfaces.Clock
	IDGenerator = interfaces.IDGenerator
)

// Removed is the Update change value that deletes a field from the stored document.
var Removed = interfaces.Removed

// Interpreter validates an attribute set against a schema.
// *schema.Validator is the default implementation.
type Interpreter interface {
	Validate(s schema.Schema, attrs map[string]any) *schema.Result
}

// BackendFactory creates the backend of a newly extended model. collection is the
// model's collection name, which drivers use as table name or key prefix.
type BackendFactory func(collection string) (Backend, error)

var _ Interpreter = (*schema.Validator)(nil)
