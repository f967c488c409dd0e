package s3

import (
	"context"
	"io"
)

// BlobStore 对象写入网关.
type BlobStore interface {
	// Put 流式写入对象，返回写入长度与 SHA-256.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (PutResult, error)
	// Exists 对象是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Remove 删除对象.
	Remove(ctx context.Context, key string) error
	// HealthCheck 检查后端可用性.
	HealthCheck(ctx context.Context) error
}

var (
	_ BlobStore = (*Bucket)(nil)
	_ BlobStore = (*MemoryBucket)(nil)
)
