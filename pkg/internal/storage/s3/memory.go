package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrObjectNotFound 内存实现中对象不存在.
var ErrObjectNotFound = errors.New("object not found")

type memObject struct {
	data        []byte
	contentType string
}

// MemoryBucket 进程内对象存储，用于本地开发与测试.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

// NewMemoryBucket 创建内存存储.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]memObject)}
}

// Put 读取完整内容并保存，同一 key 覆盖写.
func (m *MemoryBucket) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (PutResult, error) {
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}

	cr := newChecksumReader(r)

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, cr); err != nil {
		return PutResult{}, fmt.Errorf("put object %s: %w", key, err)
	}

	if size >= 0 && int64(buf.Len()) != size {
		return PutResult{}, fmt.Errorf("put object %s: expected %d bytes, read %d", key, size, buf.Len())
	}

	m.mu.Lock()
	m.objects[key] = memObject{data: buf.Bytes(), contentType: contentType}
	m.mu.Unlock()

	return cr.result(), nil
}

// Exists 对象是否存在.
func (m *MemoryBucket) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[key]

	return ok, nil
}

// Remove 删除对象.
func (m *MemoryBucket) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()

	return nil
}

// Get 读取对象内容.
func (m *MemoryBucket) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	return bytes.Clone(obj.data), nil
}

// Keys 返回所有对象键.
func (m *MemoryBucket) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}

	return keys
}

// HealthCheck 内存实现总是可用.
func (m *MemoryBucket) HealthCheck(context.Context) error {
	return nil
}
