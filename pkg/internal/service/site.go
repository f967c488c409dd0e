package service

import (
	"context"
	"time"

	"github.com/yeisme/ingestvault/pkg/cache"
	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
)

// SiteDirectory 解析调用方站点并校验账户归属，可选 KV 缓存.
type SiteDirectory struct {
	sites SiteStore
	cache *cache.Cache
	ttl   time.Duration
}

// NewSiteDirectory 创建站点目录；c 为空或 ttl<=0 时每次直接查库.
func NewSiteDirectory(sites SiteStore, c *cache.Cache, ttl time.Duration) *SiteDirectory {
	return &SiteDirectory{sites: sites, cache: c, ttl: ttl}
}

// Resolve 返回调用方所在站点；站点不存在为 NotFound，账户不匹配或站点停用为 Forbidden.
func (d *SiteDirectory) Resolve(ctx context.Context, actor model.Identity) (*model.Site, error) {
	site, err := d.load(ctx, actor.SiteID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFound("site %s not found", actor.SiteID)
		}

		return nil, IOError(err, "load site %s", actor.SiteID)
	}

	if site.AccountID != actor.AccountID || !site.Active {
		return nil, Forbidden()
	}

	return site, nil
}

// Invalidate 删除站点缓存.
func (d *SiteDirectory) Invalidate(ctx context.Context, siteID string) error {
	if d.cache == nil {
		return nil
	}

	return d.cache.Delete(ctx, siteID)
}

func (d *SiteDirectory) load(ctx context.Context, id string) (*model.Site, error) {
	if d.cache == nil || d.ttl <= 0 {
		return d.sites.Get(ctx, id)
	}

	site, err := cache.GetOrSet(ctx, d.cache, id, func() (model.Site, error) {
		s, err := d.sites.Get(ctx, id)
		if err != nil {
			return model.Site{}, err
		}

		return *s, nil
	}, d.ttl)
	if err != nil {
		return nil, err
	}

	return &site, nil
}
