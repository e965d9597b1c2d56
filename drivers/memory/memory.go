// Package memory provides the in-memory backend every model gets by default.
package memory

import (
	"context"
	"sync"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/interfaces"
	"github.com/burugo/modelkit/internal/query"
	"github.com/burugo/modelkit/internal/utils"
)

// Backend keeps documents in insertion order. Documents are copied on the way in and
// out, so callers never share state with the store. Safe for concurrent use.
type Backend struct {
	mu     sync.RWMutex
	docs   []interfaces.Document
	closed bool
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Store(ctx context.Context, doc interfaces.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(doc) == 0 {
		return common.ErrEmptyDocument
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return common.ErrClosed
	}
	b.docs = append(b.docs, utils.CopyMap(doc))
	return nil
}

func (b *Backend) FetchOne(ctx context.Context, q interfaces.Query) (interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, common.ErrClosed
	}
	idx, err := b.indexOf(q)
	if err != nil {
		return nil, err
	}
	return utils.CopyMap(b.docs[idx]), nil
}

// Fetch returns every matching document in insertion order.
func (b *Backend) Fetch(ctx context.Context, q interfaces.Query) ([]interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := query.Validate(q); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, common.ErrClosed
	}
	var out []interfaces.Document
	for _, doc := range b.docs {
		ok, err := query.Match(doc, q)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, utils.CopyMap(doc))
		}
	}
	return out, nil
}

// Update merges changes into the first matching document.
func (b *Backend) Update(ctx context.Context, q interfaces.Query, changes interfaces.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return common.ErrClosed
	}
	idx, err := b.indexOf(q)
	if err != nil {
		return err
	}
	utils.ApplyChanges(b.docs[idx], changes)
	return nil
}

// Delete removes the first matching document.
func (b *Backend) Delete(ctx context.Context, q interfaces.Query) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return common.ErrClosed
	}
	idx, err := b.indexOf(q)
	if err != nil {
		return err
	}
	b.docs = append(b.docs[:idx], b.docs[idx+1:]...)
	return nil
}

// Reset removes every document.
func (b *Backend) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = nil
	return nil
}

// Documents returns copies of the stored documents in insertion order.
func (b *Backend) Documents(ctx context.Context) ([]interfaces.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]interfaces.Document, len(b.docs))
	for i, doc := range b.docs {
		out[i] = utils.CopyMap(doc)
	}
	return out, nil
}

// Len returns the number of stored documents.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

// Close makes every further operation fail with common.ErrClosed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// indexOf returns the position of the first match. Callers hold the lock.
func (b *Backend) indexOf(q interfaces.Query) (int, error) {
	if err := query.Validate(q); err != nil {
		return -1, err
	}
	for i, doc := range b.docs {
		ok, err := query.Match(doc, q)
		if err != nil {
			return -1, err
		}
		if ok {
			return i, nil
		}
	}
	return -1, common.ErrNotFound
}

var (
	_ interfaces.Backend   = (*Backend)(nil)
	_ interfaces.Lister    = (*Backend)(nil)
	_ interfaces.Inspector = (*Backend)(nil)
)
