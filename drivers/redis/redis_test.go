package redis_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/modelkit/drivers/redis"
	"github.com/burugo/modelkit/internal/backendtest"
	"github.com/burugo/modelkit/internal/interfaces"
)

// Set MODELKIT_TEST_REDIS_ADDR (e.g. localhost:6379) to run these against a server.
func newClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("MODELKIT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MODELKIT_TEST_REDIS_ADDR not set")
	}
	c, err := redis.NewClient(nil, &redis.Options{
		Addr:      addr,
		DB:        15,
		KeyPrefix: fmt.Sprintf("modelkit_test:%s:", t.Name()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBackendContract(t *testing.T) {
	c := newClient(t)
	n := 0
	backendtest.Run(t, func(t *testing.T) interfaces.Backend {
		n++
		b := c.Collection(fmt.Sprintf("docs_%d", n))
		ctx := context.Background()
		require.NoError(t, b.Reset(ctx))
		t.Cleanup(func() { _ = b.Reset(ctx) })
		return b
	})
}

func TestUpdateMovesIdentityIndex(t *testing.T) {
	ctx := context.Background()
	b := newClient(t).Collection("users")
	require.NoError(t, b.Reset(ctx))
	t.Cleanup(func() { _ = b.Reset(ctx) })

	require.NoError(t, b.Store(ctx, interfaces.Document{"_id": "old", "name": "ada"}))
	require.NoError(t, b.Update(ctx, interfaces.Query{"_id": "old"}, interfaces.Document{"_id": "new"}))

	_, err := b.FetchOne(ctx, interfaces.Query{"_id": "old"})
	assert.Error(t, err)
	doc, err := b.FetchOne(ctx, interfaces.Query{"_id": "new"})
	require.NoError(t, err)
	assert.Equal(t, "ada", doc["name"])
}

func TestExternalClientIsNotClosed(t *testing.T) {
	addr := os.Getenv("MODELKIT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MODELKIT_TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	defer rdb.Close()

	c, err := redis.NewClient(rdb, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.NoError(t, rdb.Ping(context.Background()).Err())
}

func TestNewClientFailsWithoutServer(t *testing.T) {
	_, err := redis.NewClient(nil, &redis.Options{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
