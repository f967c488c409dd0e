package kv_test

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/storage/kv"
)

// TestMemoryKV_GetSet 基本读写与不存在的键.
func TestMemoryKV_GetSet(t *testing.T) {
	ctx := context.Background()
	client, err := kv.NewKVClient(ctx, &configs.KVConfig{Type: configs.KVTypeMemory})
	require.NoError(t, err)

	defer client.Close()

	require.NoError(t, client.Set(ctx, "site.s1", []byte(`{"id":"s1"}`), 0))

	got, err := client.Get(ctx, "site.s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1"}`, string(got))

	_, err = client.Get(ctx, "site.missing")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)

	require.NoError(t, client.Delete(ctx, "site.s1"))

	ok, err := client.Exists(ctx, "site.s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestMemoryKV_TTL 过期后读取得到 ErrKeyNotFound.
func TestMemoryKV_TTL(t *testing.T) {
	ctx := context.Background()
	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "short", []byte("v"), 30*time.Millisecond))
	require.NoError(t, store.Set(ctx, "long", []byte("v"), time.Hour))

	ok, err := store.Exists(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)

	got, err := store.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

// TestMemoryKV_Keys glob 过滤.
func TestMemoryKV_Keys(t *testing.T) {
	ctx := context.Background()
	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	require.NoError(t, err)

	for _, k := range []string{"site.a", "site.b", "other"} {
		require.NoError(t, store.Set(ctx, k, []byte("1"), 0))
	}

	keys, err := store.Keys(ctx, "site.*")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"site.a", "site.b"}, keys)

	all, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// TestRedisKV 需要本地 Redis：ENABLE_REDIS_TEST=1 REDIS_ADDR=127.0.0.1:6379.
func TestRedisKV(t *testing.T) {
	if os.Getenv("ENABLE_REDIS_TEST") == "" {
		t.Skip("set ENABLE_REDIS_TEST=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	ctx := context.Background()
	client, err := kv.NewKVClient(ctx, &configs.KVConfig{
		Type:  configs.KVTypeRedis,
		Redis: configs.RedisKVConfig{Addr: addr},
	})
	require.NoError(t, err)

	defer client.Close()

	require.NoError(t, client.Set(ctx, "ingestvault-test", []byte("v"), time.Minute))

	got, err := client.Get(ctx, "ingestvault-test")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, client.Delete(ctx, "ingestvault-test"))

	_, err = client.Get(ctx, "ingestvault-test")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
}

// TestMemoryKV_ExpiredKeyReusable 过期键被惰性删除后可以重新写入并读取，Keys 不返回过期键.
func TestMemoryKV_ExpiredKeyReusable(t *testing.T) {
	ctx := context.Background()
	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "site:a", []byte("old"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	keys, err := store.Keys(ctx, "site:*")
	require.NoError(t, err)
	assert.Empty(t, keys)

	for range 3 {
		_, err = store.Get(ctx, "site:a")
		require.ErrorIs(t, err, kv.ErrKeyNotFound)
	}

	require.NoError(t, store.Set(ctx, "site:a", []byte("new"), time.Minute))

	got, err := store.Get(ctx, "site:a")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}
