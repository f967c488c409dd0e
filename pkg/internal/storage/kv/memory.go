package kv

import (
	"context"
	"path"
	"sync"
	"time"
)

// MemoryKV 基于 sync.Map 的内存 KV 实现，过期键在读取时惰性删除.
type MemoryKV struct {
	data sync.Map // string -> *memEntry
}

// memEntry 以指针存入 sync.Map，CompareAndDelete 比较的是指针而不是切片内容.
type memEntry struct {
	raw []byte
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(ctx context.Context, config any) (KVStore, error) {
	// 内存实现不需要特殊配置
	return &MemoryKV{}, nil
}

// Get 获取键的值.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, exists := m.data.Load(key)
	if !exists {
		return nil, notFound(key)
	}

	entry, ok := value.(*memEntry)
	if !ok {
		return nil, notFound(key)
	}

	data, expired, err := decodeWithTTL(entry.raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		// 只删除读到的这一份，期间被重新写入的新值保留
		m.data.CompareAndDelete(key, entry)

		return nil, notFound(key)
	}

	// 返回副本
	result := make([]byte, len(data))
	copy(result, data)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl, time.Now())
	if err != nil {
		return err
	}

	// 复制值
	data := make([]byte, len(encoded))
	copy(data, encoded)

	m.data.Store(key, &memEntry{raw: data})

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.data.Delete(key)

	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := m.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 获取匹配 glob 模式的键，空模式返回全部.
func (m *MemoryKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)
	now := time.Now()

	m.data.Range(func(key, value any) bool {
		k, ok := key.(string)
		if !ok {
			return true // 继续遍历
		}

		if pattern != "" {
			if matched, _ := path.Match(pattern, k); !matched {
				return true
			}
		}

		if entry, ok := value.(*memEntry); ok {
			if _, expired, err := decodeWithTTL(entry.raw, now); err == nil && expired {
				return true
			}
		}

		keys = append(keys, k)

		return true
	})

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
