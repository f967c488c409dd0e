package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// PartitionRepo 执行分区 DDL 与表存在性查询.
type PartitionRepo struct {
	db       *gorm.DB
	postgres bool
}

// NewPartitionRepo 创建分区仓储.
func NewPartitionRepo(c *Client) *PartitionRepo {
	return &PartitionRepo{db: c.DB, postgres: c.IsPostgres()}
}

// Exec 执行一条 DDL.
func (r *PartitionRepo) Exec(ctx context.Context, sql string) error {
	if err := r.db.WithContext(ctx).Exec(sql).Error; err != nil {
		return fmt.Errorf("exec ddl: %w", err)
	}

	return nil
}

// TableExists 当前 schema 下是否存在该表（分区也是表）.
func (r *PartitionRepo) TableExists(ctx context.Context, name string) (bool, error) {
	if !r.postgres {
		return r.db.WithContext(ctx).Migrator().HasTable(name), nil
	}

	var exists bool

	err := r.db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_tables WHERE schemaname = current_schema() AND tablename = ?)", name).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}

	return exists, nil
}
