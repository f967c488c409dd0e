package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/model"
	nlog "github.com/yeisme/ingestvault/pkg/log"
)

// Sender 发布消息的最小接口，由 mq.Client 实现.
type Sender interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Publisher 按配置开关把领域变化发布为事件；失败只记录日志.
type Publisher struct {
	sender Sender
	cfg    configs.EventsConfig
	clock  clockwork.Clock
}

// NewPublisher 创建事件发布器；sender 为空或总开关关闭时所有方法为空操作.
func NewPublisher(sender Sender, cfg configs.EventsConfig, clock clockwork.Clock) *Publisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Publisher{sender: sender, cfg: cfg, clock: clock}
}

// BatchChanged 发布批次状态事件，主题由当前状态决定.
func (p *Publisher) BatchChanged(ctx context.Context, b *model.Batch) {
	topic, on := p.batchTopic(b.Status)
	if !on {
		return
	}

	payload := BatchEventPayload{
		Batch: BatchRef{
			ID:                 b.ID,
			AccountID:          b.AccountID,
			SiteID:             b.SiteID,
			Status:             string(b.Status),
			StoragePath:        b.StoragePath,
			UploadedFilesCount: b.UploadedFilesCount,
			TotalSize:          b.TotalSize,
			HasErrors:          b.HasErrors,
			StartedAt:          b.StartedAt,
			CompletedAt:        b.CompletedAt,
		},
		Reason: b.FailureReason,
	}

	publish(ctx, p, topic, payload)
}

// FileStored 发布文件入库事件.
func (p *Publisher) FileStored(ctx context.Context, b *model.Batch, f *model.UploadedFile) {
	if !p.enabled() || !p.cfg.File.Stored {
		return
	}

	publish(ctx, p, TopicFileStored, FileStoredPayload{
		BatchID:     b.ID,
		SiteID:      b.SiteID,
		FileID:      f.ID,
		FileName:    f.OriginalFileName,
		StorageKey:  f.StorageKey,
		Size:        f.FileSize,
		ContentType: f.ContentType,
		Checksum:    f.Checksum,
	})
}

// ErrorLogged 发布错误日志事件.
func (p *Publisher) ErrorLogged(ctx context.Context, e *model.ErrorLog) {
	if !p.enabled() || !p.cfg.Error.Logged {
		return
	}

	payload := ErrorLoggedPayload{
		ID:         e.ID,
		SiteID:     e.SiteID,
		Type:       e.Type,
		Title:      e.Title,
		OccurredAt: e.OccurredAt,
	}
	if e.BatchID != nil {
		payload.BatchID = *e.BatchID
	}

	publish(ctx, p, TopicErrorLogged, payload)
}

func (p *Publisher) enabled() bool {
	return p != nil && p.sender != nil && p.cfg.Enabled
}

func (p *Publisher) batchTopic(s model.BatchStatus) (string, bool) {
	if !p.enabled() {
		return "", false
	}

	switch s {
	case model.BatchStatusInProgress:
		return TopicBatchStarted, p.cfg.Batch.Started
	case model.BatchStatusCompleted:
		return TopicBatchCompleted, p.cfg.Batch.Completed
	case model.BatchStatusFailed:
		return TopicBatchFailed, p.cfg.Batch.Failed
	case model.BatchStatusCancelled:
		return TopicBatchCancelled, p.cfg.Batch.Cancelled
	case model.BatchStatusNotCompleted:
		return TopicBatchExpired, p.cfg.Batch.Expired
	default:
		return "", false
	}
}

func publish[T any](ctx context.Context, p *Publisher, topic string, payload T) {
	opts := []func(*EventHeader){
		WithProducer(configs.AppName),
		WithOccurredAt(p.clock.Now()),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, WithTraceID(sc.TraceID().String()))
	}

	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("topic", topic).Msg("build event failed")

		return
	}

	if err := p.sender.Publish(ctx, topic, msg); err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("publish event failed")

		return
	}

	nlog.Logger().Debug().Str("topic", topic).Str("msg_id", msg.UUID).Msg("event published")
}

// ParseBatchEvent 将 Watermill 消息解析为批次事件.
func ParseBatchEvent(msg *message.Message) (Message[BatchEventPayload], error) {
	return ParseWatermillMessage[BatchEventPayload](msg)
}

// ParseFileStored 将 Watermill 消息解析为文件入库事件.
func ParseFileStored(msg *message.Message) (Message[FileStoredPayload], error) {
	return ParseWatermillMessage[FileStoredPayload](msg)
}

// ParseErrorLogged 将 Watermill 消息解析为错误日志事件.
func ParseErrorLogged(msg *message.Message) (Message[ErrorLoggedPayload], error) {
	return ParseWatermillMessage[ErrorLoggedPayload](msg)
}
