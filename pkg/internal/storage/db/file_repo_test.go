package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db/dbtest"
)

func newFile(id, batchID, name string, size int64) *model.UploadedFile {
	return &model.UploadedFile{
		ID:               id,
		BatchID:          batchID,
		OriginalFileName: name,
		StorageKey:       batchID + "/" + name,
		FileSize:         size,
		ContentType:      "application/gzip",
		Checksum:         "00",
	}
}

// TestFileRepo_CreateIncrementsCounters 写入文件与批次计数在同一事务.
func TestFileRepo_CreateIncrementsCounters(t *testing.T) {
	ctx := context.Background()
	c := dbtest.New(t)
	batches := db.NewBatchRepo(c)
	files := db.NewFileRepo(c)

	require.NoError(t, batches.Create(ctx, newBatch("b1", "site-1", t0)))
	require.NoError(t, files.Create(ctx, newFile("f1", "b1", "a.csv.gz", 10)))
	require.NoError(t, files.Create(ctx, newFile("f2", "b1", "b.csv.gz", 32)))

	err := files.Create(ctx, newFile("f3", "b1", "a.csv.gz", 5))
	assert.ErrorIs(t, err, db.ErrDuplicateKey)

	b, err := batches.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, b.UploadedFilesCount)
	assert.Equal(t, int64(42), b.TotalSize)

	exists, err := files.ExistsByName(ctx, "b1", "b.csv.gz")
	require.NoError(t, err)
	assert.True(t, exists)

	list, err := files.ListByBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// TestFileRepo_CreateRollsBackWhenBatchEnded 批次已终止时文件行不落库.
func TestFileRepo_CreateRollsBackWhenBatchEnded(t *testing.T) {
	ctx := context.Background()
	c := dbtest.New(t)
	batches := db.NewBatchRepo(c)
	files := db.NewFileRepo(c)

	require.NoError(t, batches.Create(ctx, newBatch("b1", "site-1", t0)))
	_, err := batches.Transition(ctx, "b1", model.BatchStatusCancelled, t0.Add(time.Minute), "")
	require.NoError(t, err)

	err = files.Create(ctx, newFile("f1", "b1", "a.csv.gz", 10))
	assert.ErrorIs(t, err, db.ErrBatchNotActive)

	_, err = files.Get(ctx, "b1", "f1")
	assert.True(t, db.IsNotFound(err))
}

// TestErrorLogRepo_FlagsBatch 关联批次的错误日志置位 has_errors.
func TestErrorLogRepo_FlagsBatch(t *testing.T) {
	ctx := context.Background()
	c := dbtest.New(t)
	batches := db.NewBatchRepo(c)
	logs := db.NewErrorLogRepo(c)

	require.NoError(t, batches.Create(ctx, newBatch("b1", "site-1", t0)))

	batchID := "b1"
	meta := model.Metadata{}
	meta.Set("row", 12)
	meta.Set("column", "amount")

	require.NoError(t, logs.Create(ctx, &model.ErrorLog{
		ID: "01HZX0000000000000000000A1", SiteID: "site-1", BatchID: &batchID,
		Type: "PARSE", Title: "bad row", Message: "amount is not a number",
		Metadata: meta, OccurredAt: t0,
	}))
	require.NoError(t, logs.Create(ctx, &model.ErrorLog{
		ID: "01HZX0000000000000000000A2", SiteID: "site-1",
		Type: "AGENT", Title: "crash", Message: "agent restarted", OccurredAt: t0,
	}))

	b, err := batches.Get(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, b.HasErrors)

	got, err := logs.Get(ctx, "01HZX0000000000000000000A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"row", "column"}, got.Metadata.Keys())

	list, err := logs.ListByBatch(ctx, "b1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
