// Package dbtest 为测试提供基于内存 SQLite 的数据库客户端.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
)

// New 返回已迁移的独立内存库，测试结束时关闭.
// 连接数限制为 1，并发写入在连接上串行化，唯一约束仍由数据库裁决.
func New(t testing.TB) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	c, err := db.Open(context.Background(), sqlite.Open(dsn), configs.SQLite)
	require.NoError(t, err)

	sqlDB, err := c.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, c.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

// SeedSite 写入一个启用的站点.
func SeedSite(t testing.TB, c *db.Client, id, accountID, domain string) *model.Site {
	t.Helper()

	site := &model.Site{ID: id, AccountID: accountID, Domain: domain, Active: true}
	require.NoError(t, db.NewSiteRepo(c).Upsert(context.Background(), site))

	return site
}
