package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/drivers/sqlite"
	"github.com/burugo/modelkit/internal/backendtest"
	"github.com/burugo/modelkit/internal/interfaces"
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.sqlite"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBackendContract(t *testing.T) {
	db := openDB(t)
	n := 0
	backendtest.Run(t, func(t *testing.T) interfaces.Backend {
		n++
		b, err := db.Collection(context.Background(), fmt.Sprintf("docs_%d", n))
		require.NoError(t, err)
		return b
	})
}

func TestCollectionIsReused(t *testing.T) {
	db := openDB(t)
	a, err := db.Collection(context.Background(), "users")
	require.NoError(t, err)
	b, err := db.Factory()("users")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "users", a.Table())
}

func TestCollectionRejectsBadNames(t *testing.T) {
	db := openDB(t)
	_, err := db.Collection(context.Background(), `users"; DROP TABLE x; --`)
	assert.Error(t, err)
}

func TestDocumentsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.sqlite")
	ctx := context.Background()

	db, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	users, err := db.Collection(ctx, "users")
	require.NoError(t, err)
	require.NoError(t, users.Store(ctx, interfaces.Document{"_id": "u1", "name": "ada"}))
	require.NoError(t, db.Close())

	db, err = sqlite.Open(path, nil)
	require.NoError(t, err)
	defer db.Close()
	users, err = db.Collection(ctx, "users")
	require.NoError(t, err)
	doc, err := users.FetchOne(ctx, interfaces.Query{"_id": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "ada", doc["name"])
}

func TestTimesMatchAfterStorage(t *testing.T) {
	ctx := context.Background()
	users, err := openDB(t).Collection(ctx, "users")
	require.NoError(t, err)

	created := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	require.NoError(t, users.Store(ctx, interfaces.Document{"_id": "u1", "created": created}))

	doc, err := users.FetchOne(ctx, interfaces.Query{"created": created})
	require.NoError(t, err)
	assert.Equal(t, created.Format(time.RFC3339Nano), doc["created"])
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	users, err := db.Collection(ctx, "users")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	assert.ErrorIs(t, users.Store(ctx, interfaces.Document{"_id": "x"}), common.ErrClosed)
	_, err = db.Collection(ctx, "other")
	assert.ErrorIs(t, err, common.ErrClosed)
}
