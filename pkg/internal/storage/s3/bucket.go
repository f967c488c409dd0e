package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/sony/gobreaker"

	"github.com/yeisme/ingestvault/pkg/configs"
)

const mb = 1024 * 1024

// Bucket 基于 MinIO 的对象写入网关，写入经过熔断器.
type Bucket struct {
	client   *minio.Client
	name     string
	partSize uint64
	breaker  *gobreaker.CircuitBreaker
}

// NewBucket 创建对象写入网关；熔断未启用时直接调用.
func NewBucket(c *Client, cfg *configs.S3Config, cb configs.CircuitBreakerConfig) *Bucket {
	b := &Bucket{
		client:   c.Client,
		name:     c.bucket,
		partSize: cfg.PartSizeMB * mb,
	}

	if cb.Enabled {
		b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "s3-put",
			MaxRequests: cb.MaxRequestsInHalf,
			Interval:    time.Duration(cb.IntervalSeconds) * time.Second,
			Timeout:     time.Duration(cb.TimeoutSeconds) * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return cb.ShouldTrip(counts.Requests, counts.TotalFailures)
			},
		})
	}

	return b
}

// Put 流式写入对象，size 未知时传 -1；返回实际写入长度与 SHA-256.
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (PutResult, error) {
	cr := newChecksumReader(r)
	opts := minio.PutObjectOptions{ContentType: contentType}

	if size < 0 && b.partSize > 0 {
		opts.PartSize = b.partSize
	}

	put := func() (any, error) {
		return b.client.PutObject(ctx, b.name, key, cr, size, opts)
	}

	var (
		res any
		err error
	)

	if b.breaker != nil {
		res, err = b.breaker.Execute(put)
	} else {
		res, err = put()
	}

	if err != nil {
		return PutResult{}, fmt.Errorf("put object %s: %w", key, err)
	}

	out := cr.result()
	if info, ok := res.(minio.UploadInfo); ok && info.Size != out.Size {
		return PutResult{}, fmt.Errorf("put object %s: stored %d bytes, read %d", key, info.Size, out.Size)
	}

	return out, nil
}

// Exists 对象是否存在.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.name, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}

	return false, fmt.Errorf("stat object %s: %w", key, err)
}

// Remove 删除对象，对象不存在视为成功.
func (b *Bucket) Remove(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.name, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// HealthCheck 检查默认桶.
func (b *Bucket) HealthCheck(ctx context.Context) error {
	if _, err := b.client.BucketExists(ctx, b.name); err != nil {
		return fmt.Errorf("s3 health check: %w", err)
	}

	return nil
}
