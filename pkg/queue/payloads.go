package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID，取自当前 span.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 批次领域 --------------------------

// BatchRef 批次快照.
type BatchRef struct {
	ID                 string     `json:"id"`
	AccountID          string     `json:"account_id"`
	SiteID             string     `json:"site_id"`
	Status             string     `json:"status"`
	StoragePath        string     `json:"storage_path"`
	UploadedFilesCount int        `json:"uploaded_files_count"`
	TotalSize          int64      `json:"total_size"`
	HasErrors          bool       `json:"has_errors"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// BatchEventPayload 批次状态变化，适用于 iv.batch.* 全部主题.
type BatchEventPayload struct {
	Batch  BatchRef `json:"batch"`
	Reason string   `json:"reason,omitempty"` // FAILED 时客户端给出的原因
}

// -------------------------- 文件领域 --------------------------

// FileStoredPayload 文件已写入对象存储并落库.
type FileStoredPayload struct {
	BatchID     string `json:"batch_id"`
	SiteID      string `json:"site_id"`
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	StorageKey  string `json:"storage_key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	Checksum    string `json:"checksum"`
}

// -------------------------- 错误领域 --------------------------

// ErrorLoggedPayload 新的错误日志，不携带堆栈与元数据.
type ErrorLoggedPayload struct {
	ID         string    `json:"id"`
	SiteID     string    `json:"site_id"`
	BatchID    string    `json:"batch_id,omitempty"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}
