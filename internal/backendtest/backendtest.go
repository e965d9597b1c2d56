// Package backendtest holds the contract suite every backend driver must pass.
package backendtest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/interfaces"
)

// Factory returns a fresh, empty backend for one subtest.
type Factory func(t *testing.T) interfaces.Backend

// Run exercises the backend contract. Backends implementing Lister and Inspector get
// those capabilities checked as well.
func Run(t *testing.T, newBackend Factory) {
	t.Run("StoreAndFetchOne", func(t *testing.T) { testStoreAndFetchOne(t, newBackend(t)) })
	t.Run("FetchOneNotFound", func(t *testing.T) { testFetchOneNotFound(t, newBackend(t)) })
	t.Run("NestedAndOperatorQueries", func(t *testing.T) { testQueries(t, newBackend(t)) })
	t.Run("UpdateMergesFirstMatch", func(t *testing.T) { testUpdate(t, newBackend(t)) })
	t.Run("UpdateRemovesMarkedFields", func(t *testing.T) { testUpdateRemoves(t, newBackend(t)) })
	t.Run("DeleteRemovesFirstMatch", func(t *testing.T) { testDelete(t, newBackend(t)) })
	t.Run("InvalidOperator", func(t *testing.T) { testInvalidOperator(t, newBackend(t)) })
	t.Run("StoredCopyIsIsolated", func(t *testing.T) { testIsolation(t, newBackend(t)) })
	t.Run("ConcurrentStores", func(t *testing.T) { testConcurrentStores(t, newBackend(t)) })
	t.Run("Lister", func(t *testing.T) { testLister(t, newBackend(t)) })
	t.Run("Inspector", func(t *testing.T) { testInspector(t, newBackend(t)) })
}

func seed(t *testing.T, b interfaces.Backend, docs ...interfaces.Document) {
	t.Helper()
	for _, doc := range docs {
		require.NoError(t, b.Store(context.Background(), doc))
	}
}

func testStoreAndFetchOne(t *testing.T, b interfaces.Backend) {
	ctx := context.Background()
	seed(t, b, interfaces.Document{"_id": "a1", "email": "a@example.com", "age": 30})

	doc, err := b.FetchOne(ctx, interfaces.Query{"email": "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "a1", doc["_id"])
	assert.EqualValues(t, 30, doc["age"])

	assert.ErrorIs(t, b.Store(ctx, interfaces.Document{}), common.ErrEmptyDocument)
}

func testFetchOneNotFound(t *testing.T, b interfaces.Backend) {
	_, err := b.FetchOne(context.Background(), interfaces.Query{"_id": "missing"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testQueries(t *testing.T, b interfaces.Backend) {
	ctx := context.Background()
	seed(t, b,
		interfaces.Document{"_id": "1", "name": "ada", "age": 36, "address": map[string]any{"city": "London"}},
		interfaces.Document{"_id": "2", "name": "grace", "age": 85, "address": map[string]any{"city": "New York"}},
	)

	doc, err := b.FetchOne(ctx, interfaces.Query{"address.city": "New York"})
	require.NoError(t, err)
	assert.Equal(t, "2", doc["_id"])

	doc, err = b.FetchOne(ctx, interfaces.Query{"age": map[string]any{"$lt": 50}})
	require.NoError(t, err)
	assert.Equal(t, "1", doc["_id"])

	doc, err = b.FetchOne(ctx, interfaces.Query{"name": map[string]any{"$in": []any{"grace", "hopper"}}})
	require.NoError(t, err)
	assert.Equal(t, "2", doc["_id"])

	doc, err = b.FetchOne(ctx, interfaces.Query{"name": map[string]any{"$like": "ad%"}})
	require.NoError(t, err)
	assert.Equal(t, "1", doc["_id"])

	doc, err = b.FetchOne(ctx, interfaces.Query{})
	require.NoError(t, err)
	assert.Equal(t, "1", doc["_id"], "an empty query matches the first document")
}

func testUpdate(t *testing.T, b interfaces.Backend) {
	ctx := context.Background()
	seed(t, b,
		interfaces.Document{"_id": "1", "email": "old@example.com", "tag": "x"},
		interfaces.Document{"_id": "2", "email": "other@example.com", "tag": "x"},
	)

	require.NoError(t, b.Update(ctx, interfaces.Query{"tag": "x"}, interfaces.Document{"email": "new@example.com"}))

	first, err := b.FetchOne(ctx, interfaces.Query{"_id": "1"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", first["email"])
	assert.Equal(t, "x", first["tag"], "fields absent from changes are kept")

	second, err := b.FetchOne(ctx, interfaces.Query{"_id": "2"})
	require.NoError(t, err)
	assert.Equal(t, "other@example.com", second["email"])

	err = b.Update(ctx, interfaces.Query{"_id": "missing"}, interfaces.Document{"email": "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testUpdateRemoves(t *testing.T, b interfaces.Backend) {
	ctx := context.Background()
	seed(t, b, interfaces.Document{"_id": "1", "name": "ada", "nick": "a"})

	err := b.Update(ctx, interfaces.Query{"_id": "1"}, interfaces.Document{
		"name": "grace",
		"nick": interfaces.Removed,
	})
	require.NoError(t, err)

	doc, err := b.FetchOne(ctx, interfaces.Query{"_id": "1"})
	require.NoError(t, err)
	assert.Equal(t, "grace", doc["name"])
	assert.NotContains(t, doc, "nick")

	_, err = b.FetchOne(ctx, interfaces.Query{"nick": "a"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testDelete(t *testing.T, b interfaces.Backend) {
	ctx := context.Background()
	seed(t, b,
		interfaces.Document{"_id": "1", "tag": "x"},
		interfaces.Document{"_id": "2", "tag": "x"},
	)

	require.NoError(t, b.Delete(ctx, interfaces.Query{"tag": "x"}))

	_, err := b.FetchOne(ctx, interfaces.Query{"_id": "1"})
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = b.FetchOne(ctx, interfaces.Query{"_id": "2"})
	assert.NoError(t, err, "only the first match is deleted")

	assert.ErrorIs(t, b.Delete(ctx, interfaces.Query{"_id": "1"}), common.ErrNotFound)
}

func testInvalidOperator(t *testing.T, b interfaces.Backend) {
	seed(t, b, interfaces.Document{"_id": "1"})
	_, err := b.FetchOne(context.Background(), interfaces.Query{"_id": map[string]any{"$regex": ".*"}})
	assert.ErrorIs(t, err, common.ErrInvalidQuery)
}

func testIsolation(t *testing.T, b interfaces.Backend) {
	ctx := context.Background()
	doc := interfaces.Document{"_id": "1", "address": map[string]any{"city": "Paris"}}
	seed(t, b, doc)
	doc["address"].(map[string]any)["city"] = "Lyon"

	fetched, err := b.FetchOne(ctx, interfaces.Query{"_id": "1"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", fetched["address"].(map[string]any)["city"])

	fetched["address"].(map[string]any)["city"] = "Nice"
	again, err := b.FetchOne(ctx, interfaces.Query{"_id": "1"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", again["address"].(map[string]any)["city"])
}

func testConcurrentStores(t *testing.T, b interfaces.Backend) {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, b.Store(ctx, interfaces.Document{"_id": fmt.Sprintf("c%d", i), "n": i}))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		_, err := b.FetchOne(ctx, interfaces.Query{"_id": fmt.Sprintf("c%d", i)})
		assert.NoError(t, err)
	}
}

func testLister(t *testing.T, b interfaces.Backend) {
	lister, ok := b.(interfaces.Lister)
	if !ok {
		t.Skip("backend does not implement Lister")
	}
	ctx := context.Background()
	seed(t, b,
		interfaces.Document{"_id": "1", "kind": "a"},
		interfaces.Document{"_id": "2", "kind": "b"},
		interfaces.Document{"_id": "3", "kind": "a"},
	)

	docs, err := lister.Fetch(ctx, interfaces.Query{"kind": "a"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "1", docs[0]["_id"])
	assert.Equal(t, "3", docs[1]["_id"])

	docs, err = lister.Fetch(ctx, interfaces.Query{"kind": "z"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func testInspector(t *testing.T, b interfaces.Backend) {
	inspector, ok := b.(interfaces.Inspector)
	if !ok {
		t.Skip("backend does not implement Inspector")
	}
	ctx := context.Background()
	seed(t, b,
		interfaces.Document{"_id": "1"},
		interfaces.Document{"_id": "2"},
	)

	docs, err := inspector.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "1", docs[0]["_id"])
	assert.Equal(t, "2", docs[1]["_id"])

	require.NoError(t, inspector.Reset(ctx))
	docs, err = inspector.Documents(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
