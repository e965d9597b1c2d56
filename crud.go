package modelkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/utils"
)

// ErrNoIdentity is returned by instance-level operations on an instance without identity.
var ErrNoIdentity = errors.New("modelkit: instance has no identity")

// --- CRUD Operations ---

// Create constructs an instance from data, runs the validate and create before hooks,
// validates it and stores it. An invalid instance yields a *ValidationError and the
// backend is not touched.
func (m *Model) Create(ctx context.Context, data map[string]any) (inst *Instance, err error) {
	begin := time.Now()
	defer func() { m.observe(ctx, "create", begin, err) }()

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	backend, err := m.backendOrErr()
	if err != nil {
		return nil, err
	}

	created := m.New(data)
	if err := m.runBefore(ctx, EventValidate, created); err != nil {
		return nil, err
	}
	if err := m.runBefore(ctx, EventCreate, created); err != nil {
		return nil, err
	}
	if err := created.Validate().Err(); err != nil {
		return nil, err
	}

	if m.Timestamps() {
		now := m.Clock().Now()
		created.attrs[FieldCreated] = now
		created.attrs[FieldModified] = now
	}

	if err := m.store(ctx, backend, created); err != nil {
		return nil, err
	}

	m.runAfter(ctx, EventCreate, created)
	return created, nil
}

// Find returns the first stored document matching query as an instance of m.
// Backend errors, common.ErrNotFound included, are returned unchanged.
func (m *Model) Find(ctx context.Context, query Query) (inst *Instance, err error) {
	begin := time.Now()
	defer func() { m.observe(ctx, "find", begin, err) }()

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	backend, err := m.backendOrErr()
	if err != nil {
		return nil, err
	}

	doc, err := m.fetchOne(ctx, backend, query)
	if err != nil {
		return nil, err
	}
	return m.fromDocument(doc), nil
}

// Where returns every stored document matching query, in backend order. The backend
// must implement Lister.
func (m *Model) Where(ctx context.Context, query Query) (insts []*Instance, err error) {
	begin := time.Now()
	defer func() { m.observe(ctx, "where", begin, err) }()

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	backend, err := m.backendOrErr()
	if err != nil {
		return nil, err
	}
	lister, ok := backend.(Lister)
	if !ok {
		return nil, fmt.Errorf("%w: %T cannot list documents", common.ErrUnsupported, backend)
	}

	docs, err := m.fetch(ctx, lister, query)
	if err != nil {
		return nil, err
	}
	insts = make([]*Instance, len(docs))
	for i, doc := range docs {
		insts[i] = m.fromDocument(doc)
	}
	return insts, nil
}

// Update fetches the document matching query, merges the declared changes onto it, runs
// the validate and update before hooks and validates the result. An invalid result yields
// a *ValidationError and leaves the stored document unchanged. Otherwise modified is
// refreshed (created is kept) and the changed fields are written back.
func (m *Model) Update(ctx context.Context, query Query, changes map[string]any) (inst *Instance, err error) {
	begin := time.Now()
	defer func() { m.observe(ctx, "update", begin, err) }()

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	backend, err := m.backendOrErr()
	if err != nil {
		return nil, err
	}

	stored, err := m.fetchOne(ctx, backend, query)
	if err != nil {
		return nil, err
	}

	updated := m.fromDocument(stored)
	m.merge(updated, changes)

	if err := m.runBefore(ctx, EventValidate, updated); err != nil {
		return nil, err
	}
	if err := m.runBefore(ctx, EventUpdate, updated); err != nil {
		return nil, err
	}
	if err := updated.Validate().Err(); err != nil {
		return nil, err
	}

	if m.Timestamps() {
		updated.attrs[FieldModified] = m.Clock().Now()
	}

	target := query
	if q, ok := updated.identityQuery(); ok {
		target = q
	}
	changed := utils.ChangedFields(stored, updated.document())
	for _, key := range utils.RemovedFields(stored, updated.attrs) {
		// undeclared keys may belong to another model sharing the backend
		if m.schema.Has(key) {
			changed[key] = Removed
		}
	}
	if len(changed) > 0 {
		if err := m.update(ctx, backend, target, changed); err != nil {
			return nil, err
		}
	}

	m.runAfter(ctx, EventUpdate, updated)
	return updated, nil
}

// Destroy deletes the first stored document matching query. When destroy hooks are
// registered the document is fetched first so the hooks receive it as an instance.
func (m *Model) Destroy(ctx context.Context, query Query) (err error) {
	begin := time.Now()
	defer func() { m.observe(ctx, "destroy", begin, err) }()

	if err := checkContext(ctx); err != nil {
		return err
	}
	backend, err := m.backendOrErr()
	if err != nil {
		return err
	}

	var target *Instance
	if m.HookCount(PhaseBefore, EventDestroy)+m.HookCount(PhaseAfter, EventDestroy) > 0 {
		stored, err := m.fetchOne(ctx, backend, query)
		if err != nil {
			return err
		}
		target = m.fromDocument(stored)
		if err := m.runBefore(ctx, EventDestroy, target); err != nil {
			return err
		}
	}

	if err := m.delete(ctx, backend, query); err != nil {
		return err
	}

	if target != nil {
		m.runAfter(ctx, EventDestroy, target)
	}
	return nil
}

// --- Instance-level shortcuts ---

// Save writes the instance's current attributes through Update, selecting the stored
// document by identity. On success the instance takes the updated attributes.
func (i *Instance) Save(ctx context.Context) error {
	q, ok := i.identityQuery()
	if !ok {
		return ErrNoIdentity
	}
	updated, err := i.model.Update(ctx, q, i.attrs)
	if err != nil {
		return err
	}
	i.attrs = updated.attrs
	return nil
}

// Destroy deletes the stored document of the instance.
func (i *Instance) Destroy(ctx context.Context) error {
	q, ok := i.identityQuery()
	if !ok {
		return ErrNoIdentity
	}
	return i.model.Destroy(ctx, q)
}
