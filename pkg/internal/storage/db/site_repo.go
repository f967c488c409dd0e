package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/ingestvault/pkg/internal/model"
)

// SiteRepo 站点只读视图；Upsert 仅供命令行导入与测试.
type SiteRepo struct {
	db *gorm.DB
}

// NewSiteRepo 创建站点仓储.
func NewSiteRepo(c *Client) *SiteRepo {
	return &SiteRepo{db: c.DB}
}

// Get 按 ID 查询站点.
func (r *SiteRepo) Get(ctx context.Context, id string) (*model.Site, error) {
	var s model.Site
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error; err != nil {
		return nil, fmt.Errorf("get site %s: %w", id, err)
	}

	return &s, nil
}

// Upsert 插入或覆盖站点.
func (r *SiteRepo) Upsert(ctx context.Context, s *model.Site) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_id", "domain", "active", "updated_at"}),
	}).Create(s).Error
	if err != nil {
		return fmt.Errorf("upsert site %s: %w", s.ID, err)
	}

	return nil
}

// List 列出全部站点.
func (r *SiteRepo) List(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	return sites, nil
}
