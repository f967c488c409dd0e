package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/yeisme/ingestvault/pkg/internal/model"
	nlog "github.com/yeisme/ingestvault/pkg/log"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// Models 返回需要建表的模型.
func Models() []any {
	return []any{
		&model.Site{},
		&model.Batch{},
		&model.UploadedFile{},
		&model.ErrorLog{},
	}
}

// Migrate 建立或升级表结构.
// PostgreSQL 走版本化 SQL（含分区父表与 CHECK 约束），其余数据库使用 AutoMigrate.
func (c *Client) Migrate(ctx context.Context) error {
	if c.IsPostgres() {
		return c.migratePostgres(ctx)
	}

	if err := c.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	nlog.Logger().Info().Str("type", string(c.dbType)).Msg("数据库表结构已同步")

	return nil
}

func (c *Client) migratePostgres(ctx context.Context) (err error) {
	src, err := iofs.New(postgresMigrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	sqlDB, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// 迁移器独占一条连接，结束后归还连接池，共享的 sql.DB 保持打开
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire migrate connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		_ = src.Close()

		return fmt.Errorf("init migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		_ = src.Close()

		return fmt.Errorf("init migrate: %w", err)
	}

	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil && (srcErr != nil || dbErr != nil) {
			err = fmt.Errorf("close migrate: source: %v, conn: %v", srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}

	nlog.Logger().Info().Uint("version", version).Bool("dirty", dirty).Msg("数据库迁移完成")

	return nil
}
