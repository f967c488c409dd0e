package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/cache"
	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/internal/storage/kv"
)

// TestSiteDirectory_Cache 缓存命中时不回源，失效后读取最新状态.
func TestSiteDirectory_Cache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	require.NoError(t, err)

	dir := service.NewSiteDirectory(db.NewSiteRepo(f.db), cache.NewCache(store, "site"), time.Minute)

	site, err := dir.Resolve(ctx, siteA)
	require.NoError(t, err)
	assert.Equal(t, "a.example", site.Domain)

	require.NoError(t, f.db.Model(&model.Site{}).Where("id = ?", siteA.SiteID).Update("active", false).Error)

	_, err = dir.Resolve(ctx, siteA)
	require.NoError(t, err, "served from cache")

	require.NoError(t, dir.Invalidate(ctx, siteA.SiteID))

	_, err = dir.Resolve(ctx, siteA)
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = dir.Resolve(ctx, model.Identity{SiteID: "ghost", AccountID: "acct-1"})
	require.ErrorIs(t, err, service.ErrNotFound)
}

// TestStart_AfterSiteCacheExpiry 站点缓存过期后重新开启批次仍走回源路径，不会卡住.
func TestStart_AfterSiteCacheExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	require.NoError(t, err)

	sites := service.NewSiteDirectory(db.NewSiteRepo(f.db), cache.NewCache(store, "site"), 30*time.Millisecond)
	batches := service.NewBatchService(db.NewBatchRepo(f.db), sites, service.WithClock(f.clock))

	startWithin := func(t *testing.T) *model.Batch {
		t.Helper()

		type result struct {
			b   *model.Batch
			err error
		}

		done := make(chan result, 1)

		go func() {
			b, err := batches.Start(ctx, siteA)
			done <- result{b, err}
		}()

		select {
		case r := <-done:
			require.NoError(t, r.err)
			return r.b
		case <-time.After(5 * time.Second):
			t.Fatal("Start did not return")
			return nil
		}
	}

	first := startWithin(t)
	_, err = batches.Complete(ctx, first.ID, siteA)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	second := startWithin(t)
	_, err = batches.Cancel(ctx, second.ID, siteA)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	third := startWithin(t)
	assert.NotEqual(t, second.ID, third.ID)
	assert.Equal(t, model.BatchStatusInProgress, third.Status)
}
