package modelkit

import (
	"context"
	"errors"
	"time"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/utils"
	"github.com/burugo/modelkit/metrics"
	"github.com/burugo/modelkit/schema"
)

// --- Internal helpers shared by the CRUD operations ---

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return common.ErrNilContext
	}
	return ctx.Err()
}

func (m *Model) backendOrErr() (Backend, error) {
	b := m.Backend()
	if b == nil {
		return nil, common.ErrBackendNotSet
	}
	return b, nil
}

// observe reports the outcome of one operation to the metrics observer and logs
// unexpected failures.
func (m *Model) observe(ctx context.Context, op string, begin time.Time, err error) {
	outcome := outcomeOf(err)
	currentObserver().ObserveOperation(m.name, op, outcome, time.Since(begin))
	if outcome == metrics.OutcomeError {
		Logger().Error(ctx, "operation failed", "model", m.name, "op", op, "error", err.Error())
	}
}

func outcomeOf(err error) string {
	var (
		validationErr *schema.ValidationError
		hookErr       *HookError
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &validationErr):
		return metrics.OutcomeInvalid
	case errors.As(err, &hookErr):
		return metrics.OutcomeHookError
	case errors.Is(err, common.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

// trace logs one backend round trip.
func (m *Model) trace(ctx context.Context, op string, begin time.Time, docs int64, err error) {
	Logger().Trace(ctx, begin, func() (string, int64) {
		return m.collection + "." + op, docs
	}, err)
}

func (m *Model) store(ctx context.Context, b Backend, inst *Instance) error {
	begin := time.Now()
	err := b.Store(ctx, inst.document())
	m.trace(ctx, "store", begin, 1, err)
	return err
}

func (m *Model) fetchOne(ctx context.Context, b Backend, q Query) (Document, error) {
	begin := time.Now()
	doc, err := b.FetchOne(ctx, q)
	docs := int64(0)
	if doc != nil {
		docs = 1
	}
	m.trace(ctx, "fetchOne", begin, docs, err)
	return doc, err
}

func (m *Model) fetch(ctx context.Context, l Lister, q Query) ([]Document, error) {
	begin := time.Now()
	docs, err := l.Fetch(ctx, q)
	m.trace(ctx, "fetch", begin, int64(len(docs)), err)
	return docs, err
}

func (m *Model) update(ctx context.Context, b Backend, q Query, doc Document) error {
	begin := time.Now()
	err := b.Update(ctx, q, doc)
	m.trace(ctx, "update", begin, 1, err)
	return err
}

func (m *Model) delete(ctx context.Context, b Backend, q Query) error {
	begin := time.Now()
	err := b.Delete(ctx, q)
	m.trace(ctx, "delete", begin, -1, err)
	return err
}

// merge applies the declared part of changes to inst. Nested objects are merged key by
// key. The identity and the creation time are never changed by an update.
func (m *Model) merge(inst *Instance, changes map[string]any) {
	projected := schema.Project(m.schema, changes)
	idField, idEnabled := m.UniqueID()

	for key, value := range projected {
		if idEnabled && key == idField {
			continue
		}
		if key == FieldCreated && m.Timestamps() {
			continue
		}
		nested, isMap := value.(map[string]any)
		current, hasMap := inst.attrs[key].(map[string]any)
		if isMap && hasMap && m.schema[key].IsComposite() {
			mergeMaps(current, nested)
			continue
		}
		inst.attrs[key] = utils.DeepCopy(value)
	}
}

func mergeMaps(dst, src map[string]any) {
	for key, value := range src {
		nested, isMap := value.(map[string]any)
		current, hasMap := dst[key].(map[string]any)
		if isMap && hasMap {
			mergeMaps(current, nested)
			continue
		}
		dst[key] = utils.DeepCopy(value)
	}
}
