package modelkit

import (
	"context"
	"fmt"
	"sync"
)

// --- Event System ---

// Event names a lifecycle operation hooks can be registered for.
type Event string

// Standard lifecycle events. Any other name can be used with Fire.
const (
	EventValidate Event = "validate"
	EventCreate   Event = "create"
	EventUpdate   Event = "update"
	EventDestroy  Event = "destroy"
)

// Phase is either before or after an event.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// Hook is invoked with the instance an operation is processing. It may read and mutate
// the instance. A non-nil error from a before hook aborts the operation.
type Hook func(ctx context.Context, inst *Instance) error

// hookRegistry holds the ordered hooks of one model. A model starts with a copy of its
// parent's registry; registering afterwards never touches the parent.
type hookRegistry struct {
	mu     sync.RWMutex
	before map[Event][]Hook
	after  map[Event][]Hook
}

func newHookRegistry() *hookRegistry {
	return &hookRegistry{
		before: make(map[Event][]Hook),
		after:  make(map[Event][]Hook),
	}
}

func (r *hookRegistry) clone() *hookRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := newHookRegistry()
	for event, hooks := range r.before {
		c.before[event] = append([]Hook(nil), hooks...)
	}
	for event, hooks := range r.after {
		c.after[event] = append([]Hook(nil), hooks...)
	}
	return c
}

func (r *hookRegistry) phase(p Phase) map[Event][]Hook {
	if p == PhaseAfter {
		return r.after
	}
	return r.before
}

func (r *hookRegistry) add(p Phase, event Event, h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hooks := r.phase(p)
	hooks[event] = append(hooks[event], h)
}

func (r *hookRegistry) list(p Phase, event Event) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Hook(nil), r.phase(p)[event]...)
}

// Before registers h to run before event, after every hook registered so far
// (inherited ones included). Nil hooks are ignored.
func (m *Model) Before(event Event, h Hook) {
	if h != nil {
		m.hooks.add(PhaseBefore, event, h)
	}
}

// After registers h to run after event completed successfully. Errors returned by
// after hooks are logged, not returned.
func (m *Model) After(event Event, h Hook) {
	if h != nil {
		m.hooks.add(PhaseAfter, event, h)
	}
}

// HookCount returns the number of hooks registered for event and phase.
func (m *Model) HookCount(p Phase, event Event) int {
	return len(m.hooks.list(p, event))
}

// Fire runs event's before hooks, then op, then event's after hooks. op may be nil.
// It lets callers define lifecycle events of their own.
func (m *Model) Fire(ctx context.Context, event Event, inst *Instance, op func(ctx context.Context) error) error {
	if err := m.runBefore(ctx, event, inst); err != nil {
		return err
	}
	if op != nil {
		if err := op(ctx); err != nil {
			return err
		}
	}
	m.runAfter(ctx, event, inst)
	return nil
}

func (m *Model) runBefore(ctx context.Context, event Event, inst *Instance) error {
	return m.runHooks(ctx, PhaseBefore, event, inst)
}

func (m *Model) runAfter(ctx context.Context, event Event, inst *Instance) {
	if err := m.runHooks(ctx, PhaseAfter, event, inst); err != nil {
		Logger().Warn(ctx, "after hook failed", "model", m.name, "event", string(event), "error", err.Error())
	}
}

// runHooks executes the hooks sequentially and stops at the first failure.
func (m *Model) runHooks(ctx context.Context, p Phase, event Event, inst *Instance) error {
	for _, h := range m.hooks.list(p, event) {
		if err := callHook(ctx, h, inst); err != nil {
			currentObserver().ObserveHookFailure(m.name, string(event))
			return &HookError{Model: m.name, Event: event, Phase: p, Err: err}
		}
	}
	return nil
}

func callHook(ctx context.Context, h Hook, inst *Instance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, inst)
}
