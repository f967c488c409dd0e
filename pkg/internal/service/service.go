// Package service 实现批次生命周期、文件入库与错误日志的业务逻辑，不处理 HTTP 细节.
package service

import (
	"github.com/jonboulle/clockwork"

	"github.com/yeisme/ingestvault/pkg/cache"
	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/storage"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/queue"
)

// Services 聚合全部业务服务，供 HTTP 层与后台任务共享.
type Services struct {
	Sites   *SiteDirectory
	Batches *BatchService
	Files   *FileService
	Errors  *ErrorLogService
}

// New 基于存储资源组装服务.
func New(mgr *storage.Manager, cfg *configs.AppConfig, clock clockwork.Clock) *Services {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var siteCache *cache.Cache
	if mgr.KV != nil {
		siteCache = cache.NewCache(mgr.KV, "site")
	}

	// mgr.MQ 为空时保持 nil 接口，Publisher 据此跳过发布
	var sender queue.Sender
	if mgr.MQ != nil {
		sender = mgr.MQ
	}

	opts := []Option{
		WithClock(clock),
		WithEvents(queue.NewPublisher(sender, cfg.Events, clock)),
	}

	sites := NewSiteDirectory(db.NewSiteRepo(mgr.DB), siteCache, cfg.KV.SiteCacheTTL)
	batches := NewBatchService(db.NewBatchRepo(mgr.DB), sites, opts...)

	return &Services{
		Sites:   sites,
		Batches: batches,
		Files:   NewFileService(batches, db.NewFileRepo(mgr.DB), mgr.Blob, cfg.Batch.MaxFilesPerCall, opts...),
		Errors:  NewErrorLogService(batches, db.NewErrorLogRepo(mgr.DB), opts...),
	}
}
