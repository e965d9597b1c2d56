// Package sqlite stores documents as JSON rows in SQLite, one table per collection.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pkg/errors"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/docjson"
	"github.com/burugo/modelkit/internal/interfaces"
	"github.com/burugo/modelkit/internal/query"
	"github.com/burugo/modelkit/internal/utils"
	"github.com/burugo/modelkit/logger"
)

const idField = "_id"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DB is a SQLite database holding any number of collections.
type DB struct {
	db  *sqlx.DB
	log logger.Interface

	mu     sync.Mutex
	tables map[string]*Backend
	closed bool
}

// Open connects to dsn and verifies the connection. A nil log discards output.
func Open(dsn string, log logger.Interface) (*DB, error) {
	if log == nil {
		log = logger.Discard
	}
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: connect %q", dsn)
	}
	// SQLite serializes writers; a single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	return &DB{db: db, log: log, tables: make(map[string]*Backend)}, nil
}

// Collection returns the backend for name, creating its table when missing.
func (d *DB) Collection(ctx context.Context, name string) (*Backend, error) {
	if !tableName.MatchString(name) {
		return nil, errors.Errorf("sqlite: invalid collection name %q", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, common.ErrClosed
	}
	if b, ok := d.tables[name]; ok {
		return b, nil
	}

	b := &Backend{db: d, table: name}
	for _, stmt := range b.ddl() {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return nil, errors.Wrapf(err, "sqlite: create collection %q", name)
		}
	}
	d.tables[name] = b
	return b, nil
}

// Factory returns a constructor suitable for modelkit.Configure.
func (d *DB) Factory() func(collection string) (interfaces.Backend, error) {
	return func(collection string) (interfaces.Backend, error) {
		return d.Collection(context.Background(), collection)
	}
}

// Close closes the underlying connection. It is safe to call more than once.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

func (d *DB) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Backend is one collection table.
type Backend struct {
	db    *DB
	table string
}

type row struct {
	Seq int64  `db:"seq"`
	Doc string `db:"doc"`
}

func (b *Backend) ddl() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (seq INTEGER PRIMARY KEY AUTOINCREMENT, id TEXT, doc TEXT NOT NULL)`, b.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "idx_%s_id" ON "%s" (id)`, b.table, b.table),
	}
}

// Table returns the table name backing the collection.
func (b *Backend) Table() string { return b.table }

func (b *Backend) Store(ctx context.Context, doc interfaces.Document) (err error) {
	defer b.trace(ctx, time.Now(), "store", func() int64 { return 1 }, &err)
	if b.db.isClosed() {
		return common.ErrClosed
	}
	data, err := docjson.Marshal(doc)
	if err != nil {
		return err
	}
	var id any
	if s, ok := docjson.IDString(doc, idField); ok {
		id = s
	}
	stmt := fmt.Sprintf(`INSERT INTO "%s" (id, doc) VALUES (?, ?)`, b.table)
	if _, err = b.db.db.ExecContext(ctx, stmt, id, string(data)); err != nil {
		return errors.Wrapf(err, "sqlite: insert into %s", b.table)
	}
	return nil
}

func (b *Backend) FetchOne(ctx context.Context, q interfaces.Query) (doc interfaces.Document, err error) {
	defer b.trace(ctx, time.Now(), "fetch_one", func() int64 { return docCount(doc) }, &err)
	if b.db.isClosed() {
		return nil, common.ErrClosed
	}
	_, doc, err = b.first(ctx, b.db.db, q)
	return doc, err
}

// Fetch returns every matching document in insertion order.
func (b *Backend) Fetch(ctx context.Context, q interfaces.Query) (docs []interfaces.Document, err error) {
	defer b.trace(ctx, time.Now(), "fetch", func() int64 { return int64(len(docs)) }, &err)
	if b.db.isClosed() {
		return nil, common.ErrClosed
	}
	nq, err := docjson.NormalizeQuery(q)
	if err != nil {
		return nil, err
	}
	rows, err := b.scan(ctx, b.db.db, q)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		doc, ok, err := decodeMatch(r, nq)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Update merges changes into the first matching document.
func (b *Backend) Update(ctx context.Context, q interfaces.Query, changes interfaces.Document) (err error) {
	defer b.trace(ctx, time.Now(), "update", func() int64 { return 1 }, &err)
	if b.db.isClosed() {
		return common.ErrClosed
	}
	return b.inTx(ctx, func(tx *sqlx.Tx) error {
		seq, doc, err := b.first(ctx, tx, q)
		if err != nil {
			return err
		}
		utils.ApplyChanges(doc, changes)
		data, err := docjson.Marshal(doc)
		if err != nil {
			return err
		}
		var id any
		if s, ok := docjson.IDString(doc, idField); ok {
			id = s
		}
		stmt := fmt.Sprintf(`UPDATE "%s" SET id = ?, doc = ? WHERE seq = ?`, b.table)
		_, err = tx.ExecContext(ctx, stmt, id, string(data), seq)
		return errors.Wrapf(err, "sqlite: update %s", b.table)
	})
}

// Delete removes the first matching document.
func (b *Backend) Delete(ctx context.Context, q interfaces.Query) (err error) {
	defer b.trace(ctx, time.Now(), "delete", func() int64 { return 1 }, &err)
	if b.db.isClosed() {
		return common.ErrClosed
	}
	return b.inTx(ctx, func(tx *sqlx.Tx) error {
		seq, _, err := b.first(ctx, tx, q)
		if err != nil {
			return err
		}
		stmt := fmt.Sprintf(`DELETE FROM "%s" WHERE seq = ?`, b.table)
		_, err = tx.ExecContext(ctx, stmt, seq)
		return errors.Wrapf(err, "sqlite: delete from %s", b.table)
	})
}

// Reset removes every document from the collection.
func (b *Backend) Reset(ctx context.Context) error {
	if b.db.isClosed() {
		return common.ErrClosed
	}
	_, err := b.db.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM "%s"`, b.table))
	return errors.Wrapf(err, "sqlite: reset %s", b.table)
}

// Documents returns every stored document in insertion order.
func (b *Backend) Documents(ctx context.Context) ([]interfaces.Document, error) {
	return b.Fetch(ctx, interfaces.Query{})
}

type queryer interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// scan loads candidate rows in insertion order, narrowing by identity when the query
// selects one.
func (b *Backend) scan(ctx context.Context, db queryer, q interfaces.Query) ([]row, error) {
	var rows []row
	var err error
	if id, ok := docjson.LookupID(q, idField); ok {
		stmt := fmt.Sprintf(`SELECT seq, doc FROM "%s" WHERE id = ? ORDER BY seq`, b.table)
		err = db.SelectContext(ctx, &rows, stmt, id)
	} else {
		stmt := fmt.Sprintf(`SELECT seq, doc FROM "%s" ORDER BY seq`, b.table)
		err = db.SelectContext(ctx, &rows, stmt)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(err, "sqlite: select from %s", b.table)
	}
	return rows, nil
}

func (b *Backend) first(ctx context.Context, db queryer, q interfaces.Query) (int64, interfaces.Document, error) {
	nq, err := docjson.NormalizeQuery(q)
	if err != nil {
		return 0, nil, err
	}
	rows, err := b.scan(ctx, db, q)
	if err != nil {
		return 0, nil, err
	}
	for _, r := range rows {
		doc, ok, err := decodeMatch(r, nq)
		if err != nil {
			return 0, nil, err
		}
		if ok {
			return r.Seq, doc, nil
		}
	}
	return 0, nil, common.ErrNotFound
}

func (b *Backend) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := b.db.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlite: begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "sqlite: commit")
}

func (b *Backend) trace(ctx context.Context, begin time.Time, op string, docs func() int64, err *error) {
	b.db.log.Trace(ctx, begin, func() (string, int64) {
		return "sqlite." + b.table + "." + op, docs()
	}, *err)
}

func decodeMatch(r row, q interfaces.Query) (interfaces.Document, bool, error) {
	doc, err := docjson.Unmarshal([]byte(r.Doc))
	if err != nil {
		return nil, false, errors.Wrapf(err, "sqlite: decode row %d", r.Seq)
	}
	ok, err := query.Match(doc, q)
	if err != nil {
		return nil, false, err
	}
	return doc, ok, nil
}

func docCount(doc interfaces.Document) int64 {
	if doc == nil {
		return 0
	}
	return 1
}

var (
	_ interfaces.Backend   = (*Backend)(nil)
	_ interfaces.Lister    = (*Backend)(nil)
	_ interfaces.Inspector = (*Backend)(nil)
)
