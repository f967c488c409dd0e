// Package cache 提供基于键值存储的泛型缓存实现.
//
// 该包提供了类型安全的缓存操作，支持任意类型的缓存值.
// 底层使用 sonic JSON 序列化，支持 TTL（生存时间）设置，键按命名空间加前缀.
//
// 基本用法:
//
//	sites := cache.NewCache(kvStore, "site")
//
//	// 缓存站点数据
//	err := cache.Set(ctx, sites, site.ID, site, 5*time.Minute)
//
//	// 获取缓存数据，未命中返回 kv.ErrKeyNotFound
//	cached, err := cache.Get[model.Site](ctx, sites, site.ID)
//
//	// 使用 GetOrSet 模式，同一个键的并发回源只执行一次
//	site, err := cache.GetOrSet(ctx, sites, id, func() (model.Site, error) {
//		return repo.Get(ctx, id)
//	}, 5*time.Minute)
//
// 支持的KV存储类型:
//   - Redis
//   - NATS KV
//   - 内存存储
//
// 错误处理:
//   - 网络错误、连接错误等会通过 error 返回
//   - 序列化/反序列化错误会被包装并返回
//   - GetOrSet 中缓存读写失败只降级为回源，不视为错误
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/ingestvault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/ingestvault/pkg/log"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore   kv.KVStore
	namespace string
	group     singleflight.Group
}

// NewCache 创建一个新的缓存实例，namespace 为空时不加前缀.
func NewCache(kvStore kv.KVStore, namespace string) *Cache {
	return &Cache{
		kvStore:   kvStore,
		namespace: namespace,
	}
}

func (c *Cache) key(k string) string {
	if c.namespace == "" {
		return k
	}

	return c.namespace + ":" + k
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，未命中时回源并写回；同一个键的并发回源合并为一次.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	var zero T

	value, err := Get[T](ctx, c, key)
	if err == nil {
		return value, nil
	}

	if !errors.Is(err, kv.ErrKeyNotFound) {
		nlog.Logger().Debug().Err(err).Str("key", c.key(key)).Msg("cache read failed, falling back")
	}

	v, err, _ := c.group.Do(c.key(key), func() (any, error) {
		fresh, err := getter()
		if err != nil {
			return nil, err
		}

		if setErr := Set(ctx, c, key, fresh, ttl); setErr != nil {
			nlog.Logger().Debug().Err(setErr).Str("key", c.key(key)).Msg("cache write failed")
		}

		return fresh, nil
	})
	if err != nil {
		return zero, err
	}

	fresh, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected cache value type %T", v)
	}

	return fresh, nil
}

// Clear 清空当前命名空间下的缓存.
func (c *Cache) Clear(ctx context.Context) error {
	pattern := "*"
	if c.namespace != "" {
		pattern = c.namespace + ":*"
	}

	keys, err := c.kvStore.Keys(ctx, pattern)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
