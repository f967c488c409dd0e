package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_PostgresReleasesConn 迁移失败后独占连接归还连接池，共享的 sql.DB 仍可用.
func TestMigrate_PostgresReleasesConn(t *testing.T) {
	ctx := context.Background()
	c, mock := setupPostgresMock(t)

	sqlDB, err := c.DB.DB()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT CURRENT_DATABASE\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"current_database"}).AddRow("ingestvault"))
	mock.ExpectQuery(`SELECT CURRENT_SCHEMA\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"current_schema"}).AddRow("public"))
	mock.ExpectExec(`SELECT pg_advisory_lock\(\$1\)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM information_schema\.tables`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT pg_advisory_lock\(\$1\)`).WillReturnError(errors.New("lock timeout"))

	err = c.Migrate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate up")

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Zero(t, sqlDB.Stats().InUse)
	assert.NoError(t, sqlDB.PingContext(ctx))
}

// TestMigrate_PostgresDriverInitFailure 驱动初始化失败同样归还连接.
func TestMigrate_PostgresDriverInitFailure(t *testing.T) {
	ctx := context.Background()
	c, mock := setupPostgresMock(t)

	sqlDB, err := c.DB.DB()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT CURRENT_DATABASE\(\)`).WillReturnError(errors.New("connection reset"))

	err = c.Migrate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init migrate driver")

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Zero(t, sqlDB.Stats().InUse)
	assert.NoError(t, sqlDB.PingContext(ctx))
}
