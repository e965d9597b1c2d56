// Package cache decorates a backend with an expiring LRU of read results. Any write
// through the decorator empties the cache.
package cache

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/interfaces"
	"github.com/burugo/modelkit/internal/utils"
	"github.com/burugo/modelkit/metrics"
)

// Options configure the cache.
type Options struct {
	Size     int           // maximum number of cached queries; 0 means 1024
	TTL      time.Duration // 0 disables expiry
	Observer metrics.CacheObserver
}

// Backend is a read-through caching decorator.
type Backend struct {
	next       interfaces.Backend
	collection string
	observer   metrics.CacheObserver

	one  *expirable.LRU[string, interfaces.Document]
	many *expirable.LRU[string, []interfaces.Document]

	locker keyLocker
	mu     sync.Mutex
	gen    uint64 // bumped by every write; loads started before a write are not cached
}

// New wraps next. collection labels cache metrics.
func New(next interfaces.Backend, collection string, opts Options) *Backend {
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.Observer == nil {
		opts.Observer = metrics.Nop{}
	}
	return &Backend{
		next:       next,
		collection: collection,
		observer:   opts.Observer,
		one:        expirable.NewLRU[string, interfaces.Document](opts.Size, nil, opts.TTL),
		many:       expirable.NewLRU[string, []interfaces.Document](opts.Size, nil, opts.TTL),
	}
}

// Wrap returns a backend factory that caches every backend next produces.
func Wrap(next func(collection string) (interfaces.Backend, error), opts Options) func(collection string) (interfaces.Backend, error) {
	return func(collection string) (interfaces.Backend, error) {
		b, err := next(collection)
		if err != nil {
			return nil, err
		}
		return New(b, collection, opts), nil
	}
}

// Unwrap returns the decorated backend.
func (b *Backend) Unwrap() interfaces.Backend { return b.next }

// Len returns the number of cached results.
func (b *Backend) Len() int { return b.one.Len() + b.many.Len() }

func (b *Backend) Store(ctx context.Context, doc interfaces.Document) error {
	defer b.invalidate()
	return b.next.Store(ctx, doc)
}

func (b *Backend) FetchOne(ctx context.Context, q interfaces.Query) (interfaces.Document, error) {
	key, err := cacheKey(q)
	if err != nil {
		return nil, err
	}
	if doc, ok := b.one.Get(key); ok {
		b.observer.ObserveCache(b.collection, metrics.CacheHit)
		return utils.CopyMap(doc), nil
	}

	b.locker.Lock(key)
	defer b.locker.Unlock(key)
	if doc, ok := b.one.Get(key); ok {
		b.observer.ObserveCache(b.collection, metrics.CacheHit)
		return utils.CopyMap(doc), nil
	}
	b.observer.ObserveCache(b.collection, metrics.CacheMiss)

	gen := b.generation()
	doc, err := b.next.FetchOne(ctx, q)
	if err != nil {
		return nil, err
	}
	b.addIfCurrent(gen, func() { b.one.Add(key, utils.CopyMap(doc)) })
	return doc, nil
}

// Fetch caches listings when the decorated backend supports them.
func (b *Backend) Fetch(ctx context.Context, q interfaces.Query) ([]interfaces.Document, error) {
	lister, ok := b.next.(interfaces.Lister)
	if !ok {
		return nil, common.ErrUnsupported
	}
	key, err := cacheKey(q)
	if err != nil {
		return nil, err
	}
	if docs, ok := b.many.Get(key); ok {
		b.observer.ObserveCache(b.collection, metrics.CacheHit)
		return copyDocs(docs), nil
	}

	b.locker.Lock("*" + key)
	defer b.locker.Unlock("*" + key)
	if docs, ok := b.many.Get(key); ok {
		b.observer.ObserveCache(b.collection, metrics.CacheHit)
		return copyDocs(docs), nil
	}
	b.observer.ObserveCache(b.collection, metrics.CacheMiss)

	gen := b.generation()
	docs, err := lister.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	b.addIfCurrent(gen, func() { b.many.Add(key, copyDocs(docs)) })
	return docs, nil
}

func (b *Backend) Update(ctx context.Context, q interfaces.Query, changes interfaces.Document) error {
	defer b.invalidate()
	return b.next.Update(ctx, q, changes)
}

func (b *Backend) Delete(ctx context.Context, q interfaces.Query) error {
	defer b.invalidate()
	return b.next.Delete(ctx, q)
}

func (b *Backend) Reset(ctx context.Context) error {
	inspector, ok := b.next.(interfaces.Inspector)
	if !ok {
		return common.ErrUnsupported
	}
	defer b.invalidate()
	return inspector.Reset(ctx)
}

// Documents always reads through to the decorated backend.
func (b *Backend) Documents(ctx context.Context) ([]interfaces.Document, error) {
	inspector, ok := b.next.(interfaces.Inspector)
	if !ok {
		return nil, common.ErrUnsupported
	}
	return inspector.Documents(ctx)
}

// Close purges the cache and closes the decorated backend when it is closable.
func (b *Backend) Close() error {
	b.invalidate()
	if c, ok := b.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *Backend) generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

func (b *Backend) addIfCurrent(gen uint64, add func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen == gen {
		add()
	}
}

func (b *Backend) invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.one.Purge()
	b.many.Purge()
}

// cacheKey is the query's JSON encoding; map keys are sorted, so equal queries share a key.
func cacheKey(q interfaces.Query) (string, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return "", errors.Wrapf(common.ErrInvalidQuery, "cache key: %v", err)
	}
	return string(data), nil
}

func copyDocs(docs []interfaces.Document) []interfaces.Document {
	if docs == nil {
		return nil
	}
	out := make([]interfaces.Document, len(docs))
	for i, doc := range docs {
		out[i] = utils.CopyMap(doc)
	}
	return out
}

var (
	_ interfaces.Backend   = (*Backend)(nil)
	_ interfaces.Lister    = (*Backend)(nil)
	_ interfaces.Inspector = (*Backend)(nil)
	_ io.Closer            = (*Backend)(nil)
)
