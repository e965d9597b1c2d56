package modelkit

import (
	"errors"
	"fmt"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/schema"
)

// ErrUndefinedSchema is returned by Extend when the new model has no schema.
var ErrUndefinedSchema = errors.New("modelkit: undefined schema")

// Re-exported backend sentinels.
var (
	ErrNotFound    = common.ErrNotFound
	ErrUnsupported = common.ErrUnsupported
)

// UndefinedSchemaError reports an Extend call without a schema.
type UndefinedSchemaError struct {
	Model string
}

func (e *UndefinedSchemaError) Error() string {
	return fmt.Sprintf("modelkit: model %q must be extended with a schema", e.Model)
}

// Unwrap makes errors.Is(err, ErrUndefinedSchema) hold.
func (e *UndefinedSchemaError) Unwrap() error {
	return ErrUndefinedSchema
}

// ValidationError is returned by Create and Update when the attributes are invalid.
type ValidationError = schema.ValidationError

// HookError wraps a failure (error or recovered panic) of a registered hook.
type HookError struct {
	Model string
	Event Event
	Phase Phase
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("modelkit: %s %s hook of %s failed: %v", e.Phase, e.Event, e.Model, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
