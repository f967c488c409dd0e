package service

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid"

	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	nlog "github.com/yeisme/ingestvault/pkg/log"
	"github.com/yeisme/ingestvault/pkg/metrics"
	"github.com/yeisme/ingestvault/pkg/rule"
	"github.com/yeisme/ingestvault/pkg/tracing"
)

// LogErrorInput 客户端上报的错误内容.
type LogErrorInput struct {
	Type       string         `json:"type"                  rule:"required,max=128"`
	Title      string         `json:"title"                 rule:"required,max=512"`
	Message    string         `json:"message"               rule:"required"`
	StackTrace *string        `json:"stack_trace,omitempty"`
	Metadata   model.Metadata `json:"metadata,omitempty"`
}

// ErrorLogService 追加写入错误日志，不提供修改与删除.
type ErrorLogService struct {
	batches *BatchService
	logs    ErrorLogStore
	events  EventPublisher
	clock   clockwork.Clock

	mu      sync.Mutex
	entropy io.Reader
}

// NewErrorLogService 创建错误日志服务.
func NewErrorLogService(batches *BatchService, logs ErrorLogStore, opts ...Option) *ErrorLogService {
	o := buildOptions(opts)

	return &ErrorLogService{
		batches: batches,
		logs:    logs,
		events:  o.events,
		clock:   o.clock,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// LogForBatch 记录批次内的错误，并在同一事务中置位批次的 has_errors.
func (s *ErrorLogService) LogForBatch(ctx context.Context, batchID string, actor model.Identity,
	in LogErrorInput,
) (e *model.ErrorLog, err error) {
	ctx, span := tracing.StartSpan(ctx, "ErrorLogService.LogForBatch")
	defer func() { tracing.EndSpan(span, err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	b, err := s.batches.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if !actor.Owns(b.SiteID) {
		return nil, Forbidden()
	}

	e = s.build(b.SiteID, in)
	e.BatchID = &b.ID

	if err := s.save(ctx, e, "batch"); err != nil {
		return nil, err
	}

	return e, nil
}

// LogStandalone 记录与批次无关的错误，站点取自调用方.
func (s *ErrorLogService) LogStandalone(ctx context.Context, actor model.Identity, in LogErrorInput) (e *model.ErrorLog, err error) {
	ctx, span := tracing.StartSpan(ctx, "ErrorLogService.LogStandalone")
	defer func() { tracing.EndSpan(span, err) }()

	if actor.SiteID == "" {
		return nil, InvalidArgument(nil, "site is required")
	}

	if err := validateInput(in); err != nil {
		return nil, err
	}

	e = s.build(actor.SiteID, in)

	if err := s.save(ctx, e, "standalone"); err != nil {
		return nil, err
	}

	return e, nil
}

// Get 读取错误日志：批次错误按批次归属校验，独立错误按站点校验.
func (s *ErrorLogService) Get(ctx context.Context, id string, actor model.Identity) (*model.ErrorLog, error) {
	e, err := s.logs.Get(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFound("error log %s not found", id)
		}

		return nil, IOError(err, "load error log %s", id)
	}

	if e.BatchID != nil {
		if _, err := s.batches.GetForActor(ctx, *e.BatchID, actor); err != nil {
			return nil, err
		}

		return e, nil
	}

	if !actor.CanRead(e.SiteID) {
		return nil, Forbidden()
	}

	return e, nil
}

// ListForBatch 按发生时间列出批次的错误.
func (s *ErrorLogService) ListForBatch(ctx context.Context, batchID string, actor model.Identity, limit int) ([]model.ErrorLog, error) {
	if _, err := s.batches.GetForActor(ctx, batchID, actor); err != nil {
		return nil, err
	}

	logs, err := s.logs.ListByBatch(ctx, batchID, limit)
	if err != nil {
		return nil, IOError(err, "list error logs of batch %s", batchID)
	}

	return logs, nil
}

func (s *ErrorLogService) build(siteID string, in LogErrorInput) *model.ErrorLog {
	now := s.clock.Now().UTC()

	return &model.ErrorLog{
		ID:         s.newID(now),
		SiteID:     siteID,
		Type:       in.Type,
		Title:      in.Title,
		Message:    in.Message,
		StackTrace: in.StackTrace,
		Metadata:   in.Metadata,
		OccurredAt: now,
	}
}

func (s *ErrorLogService) save(ctx context.Context, e *model.ErrorLog, scope string) error {
	if err := s.logs.Create(ctx, e); err != nil {
		return IOError(err, "save error log")
	}

	metrics.ErrorLogs.WithLabelValues(scope).Inc()
	s.events.ErrorLogged(ctx, e)

	nlog.Ctx(ctx).Info().
		Str("error_id", e.ID).
		Str("site_id", e.SiteID).
		Str("type", e.Type).
		Str("scope", scope).
		Msg("error logged")

	return nil
}

// newID 生成按时间有序的 ULID，同一毫秒内单调递增.
func (s *ErrorLogService) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func validateInput(in LogErrorInput) error {
	if err := rule.ValidateStruct(in); err != nil {
		return InvalidArgument(err, "invalid error log")
	}

	return nil
}
