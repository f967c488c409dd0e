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

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newBatch(id, site string, startedAt time.Time) *model.Batch {
	return &model.Batch{
		ID:          id,
		AccountID:   "acc-1",
		SiteID:      site,
		Status:      model.BatchStatusInProgress,
		StoragePath: "acc-1/example.com/" + id,
		StartedAt:   startedAt,
	}
}

// TestBatchRepo_OneActivePerSite 同站点第二个进行中的批次触发唯一键冲突，终态后可以再次创建.
func TestBatchRepo_OneActivePerSite(t *testing.T) {
	ctx := context.Background()
	repo := db.NewBatchRepo(dbtest.New(t))

	require.NoError(t, repo.Create(ctx, newBatch("b1", "site-1", t0)))

	err := repo.Create(ctx, newBatch("b2", "site-1", t0))
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrDuplicateKey)

	// 其它站点不受影响
	require.NoError(t, repo.Create(ctx, newBatch("b3", "site-2", t0)))

	ok, err := repo.Transition(ctx, "b1", model.BatchStatusCompleted, t0.Add(time.Minute), "")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Create(ctx, newBatch("b2", "site-1", t0.Add(2*time.Minute))))

	active, err := repo.FindActive(ctx, "site-1")
	require.NoError(t, err)
	assert.Equal(t, "b2", active.ID)
}

// TestBatchRepo_Transition 条件更新只对 IN_PROGRESS 生效，并同时设置 completed_at.
func TestBatchRepo_Transition(t *testing.T) {
	ctx := context.Background()
	repo := db.NewBatchRepo(dbtest.New(t))

	require.NoError(t, repo.Create(ctx, newBatch("b1", "site-1", t0)))

	ok, err := repo.Transition(ctx, "b1", model.BatchStatusFailed, t0.Add(time.Minute), "disk full")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusFailed, got.Status)
	assert.Equal(t, "disk full", got.FailureReason)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(t0.Add(time.Minute)))
	assert.Nil(t, got.ActiveSiteID)

	// 终态不再迁移
	ok, err = repo.Transition(ctx, "b1", model.BatchStatusCompleted, t0.Add(2*time.Minute), "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Transition(ctx, "missing", model.BatchStatusCompleted, t0, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Get(ctx, "missing")
	assert.True(t, db.IsNotFound(err))
}

// TestBatchRepo_ListStale 只返回早于截止时间的进行中批次.
func TestBatchRepo_ListStale(t *testing.T) {
	ctx := context.Background()
	repo := db.NewBatchRepo(dbtest.New(t))

	require.NoError(t, repo.Create(ctx, newBatch("old", "site-1", t0)))
	require.NoError(t, repo.Create(ctx, newBatch("fresh", "site-2", t0.Add(90*time.Minute))))
	require.NoError(t, repo.Create(ctx, newBatch("done", "site-3", t0)))

	_, err := repo.Transition(ctx, "done", model.BatchStatusCompleted, t0.Add(time.Minute), "")
	require.NoError(t, err)

	stale, err := repo.ListStale(ctx, t0.Add(61*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "old", stale[0].ID)
}

// TestBatchRepo_ListBySite 按开始时间倒序，只含本站点，limit 生效.
func TestBatchRepo_ListBySite(t *testing.T) {
	ctx := context.Background()
	repo := db.NewBatchRepo(dbtest.New(t))

	for i, id := range []string{"s1-a", "s1-b", "s1-c"} {
		require.NoError(t, repo.Create(ctx, newBatch(id, "site-1", t0.Add(time.Duration(i)*time.Hour))))

		_, err := repo.Transition(ctx, id, model.BatchStatusCompleted, t0.Add(time.Duration(i)*time.Hour+time.Minute), "")
		require.NoError(t, err)
	}

	require.NoError(t, repo.Create(ctx, newBatch("s2-a", "site-2", t0.Add(5*time.Hour))))

	all, err := repo.ListBySite(ctx, "site-1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "s1-c", all[0].ID)
	assert.Equal(t, "s1-b", all[1].ID)
	assert.Equal(t, "s1-a", all[2].ID)

	latest, err := repo.ListBySite(ctx, "site-1", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "s1-c", latest[0].ID)

	none, err := repo.ListBySite(ctx, "site-9", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
