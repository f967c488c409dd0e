package s3_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/internal/storage/s3"
)

// TestMemoryBucket_PutChecksum 写入返回的摘要与内容的 SHA-256 一致.
func TestMemoryBucket_PutChecksum(t *testing.T) {
	ctx := context.Background()
	b := s3.NewMemoryBucket()
	content := "id,amount\n1,10\n"

	res, err := b.Put(ctx, "acc/site/a.csv", strings.NewReader(content), -1, "text/csv")
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), res.Size)
	assert.Equal(t, s3.Checksum([]byte(content)), res.Checksum)
	// sha256("") 作为对照，确保不是空摘要
	assert.NotEqual(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", res.Checksum)

	got, err := b.Get("acc/site/a.csv")
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	ok, err := b.Exists(ctx, "acc/site/a.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Remove(ctx, "acc/site/a.csv"))

	_, err = b.Get("acc/site/a.csv")
	assert.ErrorIs(t, err, s3.ErrObjectNotFound)
}

// TestMemoryBucket_SizeMismatch 声明长度与实际内容不符时拒绝写入.
func TestMemoryBucket_SizeMismatch(t *testing.T) {
	b := s3.NewMemoryBucket()

	_, err := b.Put(context.Background(), "k", strings.NewReader("abc"), 10, "")
	require.Error(t, err)
	assert.Empty(t, b.Keys())
}
