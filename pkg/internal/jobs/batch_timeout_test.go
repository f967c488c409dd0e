package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/jobs"
	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db/dbtest"
)

var sweepCfg = configs.BatchConfig{Timeout: time.Hour, SweepLimit: 100}

// TestSweep_ExpiresOnlyStaleBatches 61 分钟的批次被回收，59 分钟的保持进行中.
func TestSweep_ExpiresOnlyStaleBatches(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))

	c := dbtest.New(t)
	dbtest.SeedSite(t, c, "site-a", "acct-1", "a.example")
	dbtest.SeedSite(t, c, "site-b", "acct-1", "b.example")

	sites := service.NewSiteDirectory(db.NewSiteRepo(c), nil, 0)
	batches := service.NewBatchService(db.NewBatchRepo(c), sites, service.WithClock(clock))

	old, err := batches.Start(ctx, model.Identity{SiteID: "site-a", AccountID: "acct-1"})
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	fresh, err := batches.Start(ctx, model.Identity{SiteID: "site-b", AccountID: "acct-1"})
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)

	sweeper := jobs.NewBatchTimeoutScheduler(batches, sweepCfg, clock)

	res := sweeper.Sweep(ctx)
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Expired)
	assert.Zero(t, res.Failed)

	got, err := batches.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusNotCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(clock.Now()))

	got, err = batches.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusInProgress, got.Status)
	assert.Nil(t, got.CompletedAt)

	// 再次扫描无事可做
	res = sweeper.Sweep(ctx)
	require.NoError(t, res.Err)
	assert.Zero(t, res.Expired)

	// 回收后站点可以开启新批次
	_, err = batches.Start(ctx, model.Identity{SiteID: "site-a", AccountID: "acct-1"})
	require.NoError(t, err)
}

// fakeExpirer 按批次 ID 注入失败.
type fakeExpirer struct {
	stale    []model.Batch
	staleErr error
	fail     map[string]error
	terminal map[string]bool
	expired  []string
}

func (f *fakeExpirer) Stale(context.Context, time.Duration, int) ([]model.Batch, error) {
	return f.stale, f.staleErr
}

func (f *fakeExpirer) Expire(_ context.Context, id string) (*model.Batch, bool, error) {
	if err := f.fail[id]; err != nil {
		return nil, false, err
	}

	if f.terminal[id] {
		return &model.Batch{ID: id, Status: model.BatchStatusCompleted}, false, nil
	}

	f.expired = append(f.expired, id)

	return &model.Batch{ID: id, Status: model.BatchStatusNotCompleted}, true, nil
}

// TestSweep_FailureDoesNotAbort 单个批次失败后继续处理其余批次.
func TestSweep_FailureDoesNotAbort(t *testing.T) {
	fake := &fakeExpirer{
		stale:    []model.Batch{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}, {ID: "b4"}},
		fail:     map[string]error{"b2": errors.New("connection reset")},
		terminal: map[string]bool{"b3": true},
	}

	res := jobs.NewBatchTimeoutScheduler(fake, sweepCfg, clockwork.NewFakeClock()).Sweep(context.Background())

	assert.Equal(t, []string{"b1", "b4"}, fake.expired)
	assert.Equal(t, 2, res.Expired)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, service.ErrSchedulerOperation)
	assert.Contains(t, res.Err.Error(), "b2")
}

// TestSweep_ListFailure 列表失败时记录错误且不做任何变更.
func TestSweep_ListFailure(t *testing.T) {
	fake := &fakeExpirer{staleErr: errors.New("db down")}

	res := jobs.NewBatchTimeoutScheduler(fake, sweepCfg, nil).Sweep(context.Background())

	assert.ErrorIs(t, res.Err, service.ErrSchedulerOperation)
	assert.Zero(t, res.Expired+res.Skipped+res.Failed)
}

// TestSweep_Defaults 未配置时使用默认超时与批量上限.
func TestSweep_Defaults(t *testing.T) {
	var gotTimeout time.Duration

	var gotLimit int

	fake := &recordingExpirer{fn: func(timeout time.Duration, limit int) {
		gotTimeout, gotLimit = timeout, limit
	}}

	jobs.NewBatchTimeoutScheduler(fake, configs.BatchConfig{}, nil).Sweep(context.Background())

	assert.Equal(t, configs.DefaultBatchTimeout, gotTimeout)
	assert.Equal(t, configs.DefaultBatchSweepLimit, gotLimit)
}

type recordingExpirer struct {
	fn func(time.Duration, int)
}

func (r *recordingExpirer) Stale(_ context.Context, timeout time.Duration, limit int) ([]model.Batch, error) {
	r.fn(timeout, limit)
	return nil, nil
}

func (r *recordingExpirer) Expire(context.Context, string) (*model.Batch, bool, error) {
	return nil, false, nil
}

// pagingExpirer 模拟按 limit 截断的数据库查询，回收后的批次离开进行中集合.
type pagingExpirer struct {
	pending []string
	fail    map[string]bool
	calls   int
}

func (p *pagingExpirer) Stale(_ context.Context, _ time.Duration, limit int) ([]model.Batch, error) {
	p.calls++

	var page []model.Batch

	for _, id := range p.pending {
		if len(page) == limit {
			break
		}

		page = append(page, model.Batch{ID: id})
	}

	return page, nil
}

func (p *pagingExpirer) Expire(_ context.Context, id string) (*model.Batch, bool, error) {
	if p.fail[id] {
		return nil, false, errors.New("connection reset")
	}

	for i, pid := range p.pending {
		if pid == id {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			break
		}
	}

	return &model.Batch{ID: id, Status: model.BatchStatusNotCompleted}, true, nil
}

// TestSweep_DrainsBacklogBeyondLimit 积压超过单页上限时一次扫描全部回收，失败批次只尝试一次.
func TestSweep_DrainsBacklogBeyondLimit(t *testing.T) {
	fake := &pagingExpirer{fail: map[string]bool{"b007": true}}
	for i := range 250 {
		fake.pending = append(fake.pending, fmt.Sprintf("b%03d", i))
	}

	cfg := configs.BatchConfig{Timeout: time.Hour, SweepLimit: 100}
	res := jobs.NewBatchTimeoutScheduler(fake, cfg, clockwork.NewFakeClock()).Sweep(context.Background())

	assert.Equal(t, 249, res.Expired)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"b007"}, fake.pending)
	assert.Equal(t, 3, fake.calls)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "b007")
}

// TestSweep_StopsWhenPageHasOnlyFailures 整页都是已失败的批次时结束本轮，不会空转.
func TestSweep_StopsWhenPageHasOnlyFailures(t *testing.T) {
	fake := &pagingExpirer{
		pending: []string{"b1", "b2", "b3"},
		fail:    map[string]bool{"b1": true, "b2": true},
	}

	cfg := configs.BatchConfig{Timeout: time.Hour, SweepLimit: 2}
	res := jobs.NewBatchTimeoutScheduler(fake, cfg, clockwork.NewFakeClock()).Sweep(context.Background())

	assert.Equal(t, 2, res.Failed)
	assert.Zero(t, res.Expired)
	assert.Equal(t, 2, fake.calls)
	assert.ErrorIs(t, res.Err, service.ErrSchedulerOperation)
}
