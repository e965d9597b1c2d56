// Package redis stores documents in Redis. Each collection is a hash of JSON documents
// keyed by insertion sequence, a sorted set giving their order, and one sorted set per
// identity value.
package redis

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/docjson"
	"github.com/burugo/modelkit/internal/interfaces"
	"github.com/burugo/modelkit/internal/query"
	"github.com/burugo/modelkit/internal/utils"
	"github.com/burugo/modelkit/logger"
)

const (
	idField = "_id"
	// maxRetries bounds optimistic transaction retries for Update and Delete.
	maxRetries = 16
)

// Options holds configuration for the Redis client.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Logger    logger.Interface
}

// Client owns a Redis connection shared by every collection.
type Client struct {
	rdb               *redis.Client
	prefix            string
	log               logger.Interface
	createdInternally bool // rdb was created here and is closed by Close
}

var _ io.Closer = (*Client)(nil)

// NewClient wraps redisCli when it is not nil. Otherwise it connects with opts and
// pings the server.
func NewClient(redisCli *redis.Client, opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}
	c := &Client{rdb: redisCli, prefix: opts.KeyPrefix, log: opts.Logger}
	if c.log == nil {
		c.log = logger.Discard
	}

	if c.rdb == nil {
		c.rdb = redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
		c.createdInternally = true

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.rdb.Ping(ctx).Err(); err != nil {
			_ = c.rdb.Close()
			return nil, errors.Wrapf(err, "redis: ping %s", opts.Addr)
		}
	}
	return c, nil
}

// Collection returns the backend for name.
func (c *Client) Collection(name string) *Backend {
	return &Backend{c: c, name: name, base: c.prefix + name}
}

// Factory returns a constructor suitable for modelkit.Configure.
func (c *Client) Factory() func(collection string) (interfaces.Backend, error) {
	return func(collection string) (interfaces.Backend, error) {
		return c.Collection(collection), nil
	}
}

// Close closes the connection when NewClient created it.
func (c *Client) Close() error {
	if c.createdInternally && c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Backend is one collection.
type Backend struct {
	c    *Client
	name string
	base string
}

func (b *Backend) seqKey() string         { return b.base + ":seq" }
func (b *Backend) docsKey() string        { return b.base + ":docs" }
func (b *Backend) orderKey() string       { return b.base + ":order" }
func (b *Backend) idKey(id string) string { return b.base + ":id:" + id }

func (b *Backend) Store(ctx context.Context, doc interfaces.Document) (err error) {
	defer b.trace(ctx, time.Now(), "store", &err)
	data, err := docjson.Marshal(doc)
	if err != nil {
		return err
	}
	seq, err := b.c.rdb.Incr(ctx, b.seqKey()).Result()
	if err != nil {
		return errors.Wrapf(err, "redis: next sequence for %s", b.name)
	}
	member := strconv.FormatInt(seq, 10)
	_, err = b.c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, b.docsKey(), member, data)
		pipe.ZAdd(ctx, b.orderKey(), redis.Z{Score: float64(seq), Member: member})
		if id, ok := docjson.IDString(doc, idField); ok {
			pipe.ZAdd(ctx, b.idKey(id), redis.Z{Score: float64(seq), Member: member})
		}
		return nil
	})
	return errors.Wrapf(err, "redis: store into %s", b.name)
}

func (b *Backend) FetchOne(ctx context.Context, q interfaces.Query) (doc interfaces.Document, err error) {
	defer b.trace(ctx, time.Now(), "fetch_one", &err)
	_, doc, err = b.first(ctx, b.c.rdb, q)
	return doc, err
}

// Fetch returns every matching document in insertion order.
func (b *Backend) Fetch(ctx context.Context, q interfaces.Query) (docs []interfaces.Document, err error) {
	defer b.trace(ctx, time.Now(), "fetch", &err)
	nq, err := docjson.NormalizeQuery(q)
	if err != nil {
		return nil, err
	}
	entries, err := b.candidates(ctx, b.c.rdb, q)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		ok, err := query.Match(e.doc, nq)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, e.doc)
		}
	}
	return docs, nil
}

// Update merges changes into the first matching document.
func (b *Backend) Update(ctx context.Context, q interfaces.Query, changes interfaces.Document) (err error) {
	defer b.trace(ctx, time.Now(), "update", &err)
	return b.watch(ctx, func(tx *redis.Tx) error {
		seq, doc, err := b.first(ctx, tx, q)
		if err != nil {
			return err
		}
		oldID, hadID := docjson.IDString(doc, idField)
		utils.ApplyChanges(doc, changes)
		data, err := docjson.Marshal(doc)
		if err != nil {
			return err
		}
		member := strconv.FormatInt(seq, 10)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, b.docsKey(), member, data)
			if hadID {
				pipe.ZRem(ctx, b.idKey(oldID), member)
			}
			if id, ok := docjson.IDString(doc, idField); ok {
				pipe.ZAdd(ctx, b.idKey(id), redis.Z{Score: float64(seq), Member: member})
			}
			return nil
		})
		return err
	})
}

// Delete removes the first matching document.
func (b *Backend) Delete(ctx context.Context, q interfaces.Query) (err error) {
	defer b.trace(ctx, time.Now(), "delete", &err)
	return b.watch(ctx, func(tx *redis.Tx) error {
		seq, doc, err := b.first(ctx, tx, q)
		if err != nil {
			return err
		}
		member := strconv.FormatInt(seq, 10)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, b.docsKey(), member)
			pipe.ZRem(ctx, b.orderKey(), member)
			if id, ok := docjson.IDString(doc, idField); ok {
				pipe.ZRem(ctx, b.idKey(id), member)
			}
			return nil
		})
		return err
	})
}

// Reset removes every key of the collection.
func (b *Backend) Reset(ctx context.Context) error {
	keys := []string{b.seqKey(), b.docsKey(), b.orderKey()}
	iter := b.c.rdb.Scan(ctx, 0, b.idKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrapf(err, "redis: scan %s", b.name)
	}
	return errors.Wrapf(b.c.rdb.Del(ctx, keys...).Err(), "redis: reset %s", b.name)
}

// Documents returns every stored document in insertion order.
func (b *Backend) Documents(ctx context.Context) ([]interfaces.Document, error) {
	return b.Fetch(ctx, interfaces.Query{})
}

// reader is served by both the client and a watched transaction.
type reader interface {
	ZRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

type entry struct {
	seq int64
	doc interfaces.Document
}

// candidates loads documents in insertion order, narrowed to one identity when the
// query selects by it.
func (b *Backend) candidates(ctx context.Context, rdb reader, q interfaces.Query) ([]entry, error) {
	index := b.orderKey()
	if id, ok := docjson.LookupID(q, idField); ok {
		index = b.idKey(id)
	}
	members, err := rdb.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis: read order of %s", b.name)
	}
	if len(members) == 0 {
		return nil, nil
	}
	values, err := rdb.HMGet(ctx, b.docsKey(), members...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis: read documents of %s", b.name)
	}

	out := make([]entry, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		doc, err := docjson.Unmarshal([]byte(s))
		if err != nil {
			return nil, errors.Wrapf(err, "redis: decode %s/%s", b.name, members[i])
		}
		seq, _ := strconv.ParseInt(members[i], 10, 64)
		out = append(out, entry{seq: seq, doc: doc})
	}
	return out, nil
}

func (b *Backend) first(ctx context.Context, rdb reader, q interfaces.Query) (int64, interfaces.Document, error) {
	nq, err := docjson.NormalizeQuery(q)
	if err != nil {
		return 0, nil, err
	}
	entries, err := b.candidates(ctx, rdb, q)
	if err != nil {
		return 0, nil, err
	}
	for _, e := range entries {
		ok, err := query.Match(e.doc, nq)
		if err != nil {
			return 0, nil, err
		}
		if ok {
			return e.seq, e.doc, nil
		}
	}
	return 0, nil, common.ErrNotFound
}

// watch runs fn in an optimistic transaction over the collection, retrying when a
// concurrent writer touched it first.
func (b *Backend) watch(ctx context.Context, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxRetries; i++ {
		err := b.c.rdb.Watch(ctx, fn, b.docsKey(), b.orderKey())
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return errors.Errorf("redis: %s: too many concurrent writers", b.name)
}

func (b *Backend) trace(ctx context.Context, begin time.Time, op string, err *error) {
	b.c.log.Trace(ctx, begin, func() (string, int64) {
		return "redis." + b.name + "." + op, -1
	}, *err)
}

var (
	_ interfaces.Backend   = (*Backend)(nil)
	_ interfaces.Lister    = (*Backend)(nil)
	_ interfaces.Inspector = (*Backend)(nil)
)
