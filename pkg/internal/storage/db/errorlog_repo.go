package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/ingestvault/pkg/internal/model"
)

// ErrorLogRepo 错误日志仓储，只追加.
type ErrorLogRepo struct {
	db *gorm.DB
}

// NewErrorLogRepo 创建错误日志仓储.
func NewErrorLogRepo(c *Client) *ErrorLogRepo {
	return &ErrorLogRepo{db: c.DB}
}

// Create 写入错误日志；关联批次时在同一事务中置位 has_errors.
func (r *ErrorLogRepo) Create(ctx context.Context, e *model.ErrorLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("create error log: %w", err)
		}

		if e.BatchID == nil {
			return nil
		}

		err := tx.Model(&model.Batch{}).
			Where("id = ? AND has_errors = ?", *e.BatchID, false).
			Update("has_errors", true).Error
		if err != nil {
			return fmt.Errorf("flag batch %s has errors: %w", *e.BatchID, err)
		}

		return nil
	})
}

// Get 按 ID 查询.
func (r *ErrorLogRepo) Get(ctx context.Context, id string) (*model.ErrorLog, error) {
	var e model.ErrorLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&e).Error; err != nil {
		return nil, fmt.Errorf("get error log %s: %w", id, err)
	}

	return &e, nil
}

// ListByBatch 按发生时间列出批次的错误.
func (r *ErrorLogRepo) ListByBatch(ctx context.Context, batchID string, limit int) ([]model.ErrorLog, error) {
	var logs []model.ErrorLog

	q := r.db.WithContext(ctx).Where("batch_id = ?", batchID).Order("occurred_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list error logs: %w", err)
	}

	return logs, nil
}
