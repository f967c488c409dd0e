package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/cache"
	"github.com/yeisme/ingestvault/pkg/internal/storage/kv"
)

// testSite 测试用的站点结构体.
type testSite struct {
	ID     string `json:"id"`
	Domain string `json:"domain"`
	Active bool   `json:"active"`
}

func newCache(t *testing.T, ns string) (*cache.Cache, kv.KVStore) {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	require.NoError(t, err)

	return cache.NewCache(store, ns), store
}

// TestCache_GetSet 写入后可以读回，键带命名空间前缀.
func TestCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, store := newCache(t, "site")

	want := testSite{ID: "s1", Domain: "shop.example", Active: true}
	require.NoError(t, cache.Set(ctx, c, "s1", want, time.Minute))

	got, err := cache.Get[testSite](ctx, c, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	ok, err := store.Exists(ctx, "site:s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestCache_Miss 未命中返回 kv.ErrKeyNotFound.
func TestCache_Miss(t *testing.T) {
	c, _ := newCache(t, "site")

	_, err := cache.Get[testSite](context.Background(), c, "nope")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
}

// TestCache_Delete 删除后不再存在.
func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t, "site")

	require.NoError(t, cache.Set(ctx, c, "s1", testSite{ID: "s1"}, 0))
	require.NoError(t, c.Delete(ctx, "s1"))

	ok, err := c.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestGetOrSet 未命中时回源一次并写回.
func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t, "site")

	var calls int32

	getter := func() (testSite, error) {
		atomic.AddInt32(&calls, 1)

		return testSite{ID: "s1", Domain: "a.example"}, nil
	}

	for range 3 {
		got, err := cache.GetOrSet(ctx, c, "s1", getter, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "a.example", got.Domain)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestGetOrSet_Concurrent 并发未命中只回源一次.
func TestGetOrSet_Concurrent(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t, "site")

	var (
		calls   int32
		release = make(chan struct{})
		wg      sync.WaitGroup
	)

	getter := func() (testSite, error) {
		atomic.AddInt32(&calls, 1)
		<-release

		return testSite{ID: "s1"}, nil
	}

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := cache.GetOrSet(ctx, c, "s1", getter, time.Minute)
			assert.NoError(t, err)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

// TestGetOrSet_GetterError 回源失败不写缓存.
func TestGetOrSet_GetterError(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t, "site")

	boom := errors.New("db down")
	_, err := cache.GetOrSet(ctx, c, "s1", func() (testSite, error) { return testSite{}, boom }, time.Minute)
	require.ErrorIs(t, err, boom)

	ok, err := c.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestCache_Clear 只清理本命名空间.
func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	sites, store := newCache(t, "site")
	other := cache.NewCache(store, "other")

	require.NoError(t, cache.Set(ctx, sites, "a", 1, 0))
	require.NoError(t, cache.Set(ctx, sites, "b", 2, 0))
	require.NoError(t, cache.Set(ctx, other, "a", 3, 0))

	require.NoError(t, sites.Clear(ctx))

	ok, err := sites.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := cache.Get[int](ctx, other, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
