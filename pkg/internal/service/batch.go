package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	nlog "github.com/yeisme/ingestvault/pkg/log"
	"github.com/yeisme/ingestvault/pkg/metrics"
	"github.com/yeisme/ingestvault/pkg/tracing"
)

// BatchService 负责批次状态机与"每个站点至多一个进行中批次"的约束.
type BatchService struct {
	batches BatchStore
	sites   *SiteDirectory
	events  EventPublisher
	clock   clockwork.Clock
}

// NewBatchService 创建批次服务.
func NewBatchService(batches BatchStore, sites *SiteDirectory, opts ...Option) *BatchService {
	o := buildOptions(opts)

	return &BatchService{
		batches: batches,
		sites:   sites,
		events:  o.events,
		clock:   o.clock,
	}
}

// StoragePath 批次的对象存储前缀：<account>/<domain>/yyyy/MM/dd/HHmmss_<batchId>，时间取 UTC.
func StoragePath(accountID, domain string, startedAt time.Time, batchID string) string {
	t := startedAt.UTC()

	return fmt.Sprintf("%s/%s/%s_%s", accountID, domain, t.Format("2006/01/02/150405"), batchID)
}

// Start 为调用方站点开启新批次；已有进行中的批次时返回 Conflict.
func (s *BatchService) Start(ctx context.Context, actor model.Identity) (b *model.Batch, err error) {
	ctx, span := tracing.StartSpan(ctx, "BatchService.Start")
	defer func() { tracing.EndSpan(span, err) }()

	if actor.SiteID == "" || actor.AccountID == "" {
		return nil, InvalidArgument(nil, "site and account are required")
	}

	site, err := s.sites.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	id := uuid.NewString()
	b = &model.Batch{
		ID:          id,
		AccountID:   actor.AccountID,
		SiteID:      actor.SiteID,
		Status:      model.BatchStatusInProgress,
		StoragePath: StoragePath(actor.AccountID, site.Domain, now, id),
		StartedAt:   now,
	}

	// 唯一索引裁决并发 Start，输家在这里拿到 ErrDuplicateKey
	if err := s.batches.Create(ctx, b); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			return nil, Conflict("site %s already has an active batch", actor.SiteID)
		}

		return nil, IOError(err, "create batch")
	}

	metrics.BatchTransitions.WithLabelValues(string(b.Status)).Inc()
	s.events.BatchChanged(ctx, b)

	nlog.Ctx(ctx).Info().
		Str("batch_id", b.ID).
		Str("site_id", b.SiteID).
		Str("storage_path", b.StoragePath).
		Msg("batch started")

	return b, nil
}

// Complete 客户端确认完成.
func (s *BatchService) Complete(ctx context.Context, batchID string, actor model.Identity) (*model.Batch, error) {
	return s.finish(ctx, batchID, actor, model.BatchStatusCompleted, "")
}

// Fail 客户端报告失败.
func (s *BatchService) Fail(ctx context.Context, batchID string, actor model.Identity, reason string) (*model.Batch, error) {
	return s.finish(ctx, batchID, actor, model.BatchStatusFailed, reason)
}

// Cancel 客户端取消；不打断进行中的上传，只阻止后续上传.
func (s *BatchService) Cancel(ctx context.Context, batchID string, actor model.Identity) (*model.Batch, error) {
	return s.finish(ctx, batchID, actor, model.BatchStatusCancelled, "")
}

func (s *BatchService) finish(ctx context.Context, batchID string, actor model.Identity,
	to model.BatchStatus, reason string,
) (b *model.Batch, err error) {
	ctx, span := tracing.StartSpan(ctx, "BatchService."+string(to))
	defer func() { tracing.EndSpan(span, err) }()

	b, err = s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if !actor.Owns(b.SiteID) {
		return nil, Forbidden()
	}

	if !b.Status.CanTransitionTo(to) {
		return nil, conflictFor(b)
	}

	ok, err := s.batches.Transition(ctx, batchID, to, s.clock.Now().UTC(), reason)
	if err != nil {
		return nil, IOError(err, "update batch %s", batchID)
	}

	// 条件更新未命中时重新读取，报告实际的终态
	b, err = s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, conflictFor(b)
	}

	metrics.BatchTransitions.WithLabelValues(string(to)).Inc()
	s.events.BatchChanged(ctx, b)

	nlog.Ctx(ctx).Info().
		Str("batch_id", b.ID).
		Str("site_id", b.SiteID).
		Str("status", string(b.Status)).
		Int("files", b.UploadedFilesCount).
		Int64("bytes", b.TotalSize).
		Msg("batch finished")

	return b, nil
}

// Get 按 ID 读取批次，不做租户校验.
func (s *BatchService) Get(ctx context.Context, batchID string) (*model.Batch, error) {
	b, err := s.batches.Get(ctx, batchID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFound("batch %s not found", batchID)
		}

		return nil, IOError(err, "load batch %s", batchID)
	}

	return b, nil
}

// GetForActor 读取批次并校验读权限，管理员可跨租户读取.
func (s *BatchService) GetForActor(ctx context.Context, batchID string, actor model.Identity) (*model.Batch, error) {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if !actor.CanRead(b.SiteID) {
		return nil, Forbidden()
	}

	return b, nil
}

// Expire 超时扫描调用：IN_PROGRESS -> NOT_COMPLETED；已是终态时为空操作，changed 为 false.
func (s *BatchService) Expire(ctx context.Context, batchID string) (b *model.Batch, changed bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "BatchService.Expire")
	defer func() { tracing.EndSpan(span, err) }()

	changed, err = s.batches.Transition(ctx, batchID, model.BatchStatusNotCompleted, s.clock.Now().UTC(), "")
	if err != nil {
		return nil, false, IOError(err, "expire batch %s", batchID)
	}

	b, err = s.Get(ctx, batchID)
	if err != nil {
		return nil, false, err
	}

	if changed {
		metrics.BatchTransitions.WithLabelValues(string(b.Status)).Inc()
		s.events.BatchChanged(ctx, b)
	}

	return b, changed, nil
}

// Stale 列出开始时间早于 now-timeout 的进行中批次.
func (s *BatchService) Stale(ctx context.Context, timeout time.Duration, limit int) ([]model.Batch, error) {
	before := s.clock.Now().UTC().Add(-timeout)

	batches, err := s.batches.ListStale(ctx, before, limit)
	if err != nil {
		return nil, IOError(err, "list stale batches")
	}

	return batches, nil
}

func conflictFor(b *model.Batch) error {
	switch b.Status {
	case model.BatchStatusCompleted:
		return Conflict("batch already completed")
	case model.BatchStatusFailed:
		return Conflict("batch already failed")
	case model.BatchStatusCancelled:
		return Conflict("batch already cancelled")
	case model.BatchStatusNotCompleted:
		return Conflict("batch already expired")
	default:
		return Conflict("batch %s cannot change from %s", b.ID, b.Status)
	}
}
