package db_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db/dbtest"
)

// setupPostgresMock 使用 sqlmock 驱动 PostgreSQL dialector.
func setupPostgresMock(t *testing.T) (*db.Client, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	c, err := db.Open(context.Background(), postgres.New(postgres.Config{Conn: sqlDB}), configs.PostgreSQL)
	require.NoError(t, err)

	t.Cleanup(func() {
		mock.ExpectClose()
		_ = sqlDB.Close()
	})

	return c, mock
}

// TestPartitionRepo_Postgres DDL 原样下发，存在性查询读取 pg_tables.
func TestPartitionRepo_Postgres(t *testing.T) {
	ctx := context.Background()
	c, mock := setupPostgresMock(t)
	repo := db.NewPartitionRepo(c)

	ddl := "CREATE TABLE IF NOT EXISTS error_logs_2026_03 PARTITION OF error_logs " +
		"FOR VALUES FROM ('2026-03-01 00:00:00+00') TO ('2026-04-01 00:00:00+00')"
	mock.ExpectExec(regexp.QuoteMeta(ddl)).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Exec(ctx, ddl))

	mock.ExpectQuery(`FROM pg_catalog\.pg_tables`).
		WithArgs("error_logs_2026_03").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.TableExists(ctx, "error_logs_2026_03")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS error_logs_2024_03")).
		WillReturnError(&pgconn.PgError{Code: "42501", Message: "must be owner of table"})
	assert.Error(t, repo.Exec(ctx, "DROP TABLE IF EXISTS error_logs_2024_03"))

	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPartitionRepo_SQLite 非 PostgreSQL 走 Migrator 判断表是否存在.
func TestPartitionRepo_SQLite(t *testing.T) {
	repo := db.NewPartitionRepo(dbtest.New(t))

	exists, err := repo.TableExists(context.Background(), "batches")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.TableExists(context.Background(), "error_logs_1999_01")
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestErrorClassification 各驱动的唯一键与已存在错误.
func TestErrorClassification(t *testing.T) {
	assert.True(t, db.IsDuplicateKey(&pgconn.PgError{Code: "23505"}))
	assert.False(t, db.IsDuplicateKey(&pgconn.PgError{Code: "23503"}))
	assert.True(t, db.IsDuplicateKey(errors.New("constraint failed: UNIQUE constraint failed: batches.active_site_id (2067)")))
	assert.False(t, db.IsDuplicateKey(nil))

	assert.True(t, db.IsAlreadyExists(&pgconn.PgError{Code: "42P07"}))
	assert.True(t, db.IsAlreadyExists(errors.New(`relation "error_logs_2026_03" already exists`)))
	assert.False(t, db.IsAlreadyExists(errors.New("permission denied")))
}
