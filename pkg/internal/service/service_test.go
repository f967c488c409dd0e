package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db/dbtest"
	"github.com/yeisme/ingestvault/pkg/internal/storage/s3"
)

var (
	// siteA 与 siteB 属于同一账户，siteC 属于另一账户.
	siteA = model.Identity{SiteID: "site-a", AccountID: "acct-1"}
	siteB = model.Identity{SiteID: "site-b", AccountID: "acct-1"}
	siteC = model.Identity{SiteID: "site-c", AccountID: "acct-2"}
	admin = model.Identity{Admin: true}

	fixtureNow = time.Date(2025, 6, 15, 10, 30, 45, 0, time.UTC)
)

// recordingEvents 记录发布的领域事件.
type recordingEvents struct {
	mu      sync.Mutex
	batches []model.BatchStatus
	files   []string
	errors  []string
}

func (r *recordingEvents) BatchChanged(_ context.Context, b *model.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches = append(r.batches, b.Status)
}

func (r *recordingEvents) FileStored(_ context.Context, _ *model.Batch, f *model.UploadedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files = append(r.files, f.OriginalFileName)
}

func (r *recordingEvents) ErrorLogged(_ context.Context, e *model.ErrorLog) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, e.ID)
}

type fixture struct {
	db      *db.Client
	clock   *clockwork.FakeClock
	blobs   *s3.MemoryBucket
	events  *recordingEvents
	batches *service.BatchService
	files   *service.FileService
	errors  *service.ErrorLogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:     dbtest.New(t),
		clock:  clockwork.NewFakeClockAt(fixtureNow),
		blobs:  s3.NewMemoryBucket(),
		events: &recordingEvents{},
	}

	dbtest.SeedSite(t, f.db, siteA.SiteID, siteA.AccountID, "a.example")
	dbtest.SeedSite(t, f.db, siteB.SiteID, siteB.AccountID, "b.example")
	dbtest.SeedSite(t, f.db, siteC.SiteID, siteC.AccountID, "c.example")

	f.build(f.blobs, db.NewFileRepo(f.db))

	return f
}

// build 允许测试替换对象存储或文件仓储.
func (f *fixture) build(blobs s3.BlobStore, files service.FileStore) {
	opts := []service.Option{service.WithClock(f.clock), service.WithEvents(f.events)}
	sites := service.NewSiteDirectory(db.NewSiteRepo(f.db), nil, 0)

	f.batches = service.NewBatchService(db.NewBatchRepo(f.db), sites, opts...)
	f.files = service.NewFileService(f.batches, files, blobs, 10, opts...)
	f.errors = service.NewErrorLogService(f.batches, db.NewErrorLogRepo(f.db), opts...)
}

func (f *fixture) start(t *testing.T, actor model.Identity) *model.Batch {
	t.Helper()

	b, err := f.batches.Start(context.Background(), actor)
	require.NoError(t, err)

	return b
}

func (f *fixture) reload(t *testing.T, id string) *model.Batch {
	t.Helper()

	b, err := f.batches.Get(context.Background(), id)
	require.NoError(t, err)

	return b
}
