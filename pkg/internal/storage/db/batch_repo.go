package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/ingestvault/pkg/internal/model"
)

// BatchRepo 批次仓储.
type BatchRepo struct {
	db *gorm.DB
}

// NewBatchRepo 创建批次仓储.
func NewBatchRepo(c *Client) *BatchRepo {
	return &BatchRepo{db: c.DB}
}

// Create 插入一个进行中的批次；同站点已有进行中的批次时返回 ErrDuplicateKey.
func (r *BatchRepo) Create(ctx context.Context, b *model.Batch) error {
	if b.Status == model.BatchStatusInProgress {
		site := b.SiteID
		b.ActiveSiteID = &site
	}

	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create batch: %w", translate(err))
	}

	return nil
}

// Get 按 ID 查询.
func (r *BatchRepo) Get(ctx context.Context, id string) (*model.Batch, error) {
	var b model.Batch
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, fmt.Errorf("get batch %s: %w", id, err)
	}

	return &b, nil
}

// FindActive 查询站点当前进行中的批次，不存在时返回 ErrRecordNotFound.
func (r *BatchRepo) FindActive(ctx context.Context, siteID string) (*model.Batch, error) {
	var b model.Batch

	err := r.db.WithContext(ctx).
		Where("site_id = ? AND status = ?", siteID, model.BatchStatusInProgress).
		Take(&b).Error
	if err != nil {
		return nil, fmt.Errorf("find active batch of site %s: %w", siteID, err)
	}

	return &b, nil
}

// Transition 条件更新状态：仅当当前状态是 to 的合法来源时生效，返回是否命中.
func (r *BatchRepo) Transition(ctx context.Context, id string, to model.BatchStatus, at time.Time, reason string) (bool, error) {
	sources := model.SourcesOf(to)
	if len(sources) == 0 {
		return false, fmt.Errorf("no transition leads to %s", to)
	}

	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	if to.IsTerminal() {
		updates["completed_at"] = at
		updates["active_site_id"] = nil
	}

	if reason != "" {
		updates["failure_reason"] = reason
	}

	res := r.db.WithContext(ctx).Model(&model.Batch{}).
		Where("id = ? AND status IN ?", id, sources).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("transition batch %s to %s: %w", id, to, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// ListStale 列出 startedAt 早于 before 的进行中批次，按开始时间升序.
func (r *BatchRepo) ListStale(ctx context.Context, before time.Time, limit int) ([]model.Batch, error) {
	var batches []model.Batch

	q := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", model.BatchStatusInProgress, before).
		Order("started_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("list stale batches: %w", err)
	}

	return batches, nil
}

// ListBySite 按开始时间倒序列出站点的批次.
func (r *BatchRepo) ListBySite(ctx context.Context, siteID string, limit int) ([]model.Batch, error) {
	var batches []model.Batch

	q := r.db.WithContext(ctx).Where("site_id = ?", siteID).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("list batches of site %s: %w", siteID, err)
	}

	return batches, nil
}

// IsNotFound 是否为记录不存在.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
