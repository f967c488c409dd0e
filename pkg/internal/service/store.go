package service

import (
	"context"
	"time"

	"github.com/yeisme/ingestvault/pkg/internal/model"
)

// BatchStore 批次持久化，由 db.BatchRepo 实现.
type BatchStore interface {
	Create(ctx context.Context, b *model.Batch) error
	Get(ctx context.Context, id string) (*model.Batch, error)
	Transition(ctx context.Context, id string, to model.BatchStatus, at time.Time, reason string) (bool, error)
	ListStale(ctx context.Context, before time.Time, limit int) ([]model.Batch, error)
}

// FileStore 文件元数据持久化，由 db.FileRepo 实现.
type FileStore interface {
	Create(ctx context.Context, f *model.UploadedFile) error
	ExistsByName(ctx context.Context, batchID, name string) (bool, error)
	Get(ctx context.Context, batchID, fileID string) (*model.UploadedFile, error)
	ListByBatch(ctx context.Context, batchID string) ([]model.UploadedFile, error)
}

// ErrorLogStore 错误日志持久化，由 db.ErrorLogRepo 实现.
type ErrorLogStore interface {
	Create(ctx context.Context, e *model.ErrorLog) error
	Get(ctx context.Context, id string) (*model.ErrorLog, error)
	ListByBatch(ctx context.Context, batchID string, limit int) ([]model.ErrorLog, error)
}

// SiteStore 站点只读查询，由 db.SiteRepo 实现.
type SiteStore interface {
	Get(ctx context.Context, id string) (*model.Site, error)
}

// EventPublisher 领域事件出口，由 queue.Publisher 实现；方法不返回错误.
type EventPublisher interface {
	BatchChanged(ctx context.Context, b *model.Batch)
	FileStored(ctx context.Context, b *model.Batch, f *model.UploadedFile)
	ErrorLogged(ctx context.Context, e *model.ErrorLog)
}

type noopPublisher struct{}

func (noopPublisher) BatchChanged(context.Context, *model.Batch)                    {}
func (noopPublisher) FileStored(context.Context, *model.Batch, *model.UploadedFile) {}
func (noopPublisher) ErrorLogged(context.Context, *model.ErrorLog)                  {}
