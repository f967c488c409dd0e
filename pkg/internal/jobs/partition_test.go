package jobs_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/jobs"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
)

// memStore 记录执行的 DDL 并维护一个表集合.
type memStore struct {
	tables  map[string]bool
	execs   []string
	execErr error
	hasErr  error
}

func newMemStore(tables ...string) *memStore {
	s := &memStore{tables: map[string]bool{}}
	for _, t := range tables {
		s.tables[t] = true
	}

	return s
}

func (s *memStore) Exec(_ context.Context, sql string) error {
	s.execs = append(s.execs, sql)
	return s.execErr
}

func (s *memStore) TableExists(_ context.Context, name string) (bool, error) {
	return s.tables[name], s.hasErr
}

var partitionCfg = configs.PartitionConfig{Table: "error_logs", RetentionMonths: 24}

func TestPartitionName(t *testing.T) {
	assert.Equal(t, "error_logs_2026_03", jobs.PartitionName("error_logs", time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)))
	// 东八区的 4 月 1 日凌晨仍属于 UTC 3 月
	cst := time.FixedZone("CST", 8*3600)
	assert.Equal(t, "error_logs_2026_03", jobs.PartitionName("error_logs", time.Date(2026, 4, 1, 2, 0, 0, 0, cst)))
}

func TestCreatePartitionSQL(t *testing.T) {
	got := jobs.CreatePartitionSQL("error_logs", time.Date(2026, 12, 9, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS error_logs_2026_12 PARTITION OF error_logs "+
		"FOR VALUES FROM ('2026-12-01 00:00:00+00') TO ('2027-01-01 00:00:00+00')", got)
}

func TestInitializePartitions(t *testing.T) {
	store := newMemStore()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC))

	ok := jobs.NewPartitionScheduler(store, partitionCfg, clock).InitializePartitions(context.Background())

	require.True(t, ok)
	require.Len(t, store.execs, 2)
	assert.Contains(t, store.execs[0], "error_logs_2026_01 PARTITION OF")
	// 1 月 31 日加一个月不能溢出到 3 月
	assert.Contains(t, store.execs[1], "error_logs_2026_02 PARTITION OF")
}

// TestCreatePartition_AlreadyExists 已存在视为成功，重复创建是幂等的.
func TestCreatePartition_AlreadyExists(t *testing.T) {
	store := newMemStore()
	store.execErr = &pgconn.PgError{Code: "42P07", Message: `relation "error_logs_2026_03" already exists`}

	p := jobs.NewPartitionScheduler(store, partitionCfg, clockwork.NewFakeClock())
	month := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, p.CreatePartition(context.Background(), month))
	assert.True(t, p.CreatePartition(context.Background(), month))
}

// TestCreatePartition_Failure 其他错误只记录，不向外传播.
func TestCreatePartition_Failure(t *testing.T) {
	store := newMemStore()
	store.execErr = errors.New("permission denied for schema public")

	p := jobs.NewPartitionScheduler(store, partitionCfg, clockwork.NewFakeClock())

	assert.NotPanics(t, func() {
		assert.False(t, p.CreateNextMonthPartition(context.Background()))
	})
}

func TestDropOldPartitions(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))

	t.Run("drops partition past retention", func(t *testing.T) {
		store := newMemStore("error_logs_2024_03")
		p := jobs.NewPartitionScheduler(store, partitionCfg, clock)

		require.True(t, p.DropOldPartitions(context.Background()))
		assert.Equal(t, []string{"DROP TABLE IF EXISTS error_logs_2024_03"}, store.execs)
	})

	t.Run("absent partition is a no-op", func(t *testing.T) {
		store := newMemStore("error_logs_2024_02")
		p := jobs.NewPartitionScheduler(store, partitionCfg, clock)

		require.True(t, p.DropOldPartitions(context.Background()))
		assert.Empty(t, store.execs)
	})

	t.Run("existence check failure is swallowed", func(t *testing.T) {
		store := newMemStore()
		store.hasErr = errors.New("timeout")
		p := jobs.NewPartitionScheduler(store, partitionCfg, clock)

		assert.False(t, p.DropOldPartitions(context.Background()))
		assert.Empty(t, store.execs)
	})

	t.Run("custom retention", func(t *testing.T) {
		store := newMemStore("error_logs_2025_12")
		p := jobs.NewPartitionScheduler(store, configs.PartitionConfig{RetentionMonths: 3}, clock)

		require.True(t, p.DropOldPartitions(context.Background()))
		assert.Equal(t, []string{"DROP TABLE IF EXISTS error_logs_2025_12"}, store.execs)
	})
}

func TestMaintain(t *testing.T) {
	store := newMemStore("error_logs_2024_03")
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	require.True(t, jobs.NewPartitionScheduler(store, partitionCfg, clock).Maintain(context.Background()))
	require.Len(t, store.execs, 2)
	assert.Contains(t, store.execs[0], "error_logs_2026_04")
	assert.Equal(t, "DROP TABLE IF EXISTS error_logs_2024_03", store.execs[1])
}

// TestPartitionScheduler_Postgres 通过 PostgreSQL dialector 下发 DDL，第二次创建返回 42P07.
func TestPartitionScheduler_Postgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	c, err := db.Open(context.Background(), postgres.New(postgres.Config{Conn: sqlDB}), configs.PostgreSQL)
	require.NoError(t, err)

	t.Cleanup(func() { _ = sqlDB.Close() })

	month := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ddl := regexp.QuoteMeta(jobs.CreatePartitionSQL("error_logs", month))

	mock.ExpectExec(ddl).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(ddl).WillReturnError(&pgconn.PgError{Code: "42P07"})

	p := jobs.NewPartitionScheduler(db.NewPartitionRepo(c), partitionCfg, clockwork.NewFakeClockAt(month))

	assert.True(t, p.CreatePartition(context.Background(), month))
	assert.True(t, p.CreatePartition(context.Background(), month))
	require.NoError(t, mock.ExpectationsWereMet())
}
