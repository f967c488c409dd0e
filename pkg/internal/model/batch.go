package model

import (
	"time"
)

// BatchStatus 批次状态.
type BatchStatus string

const (
	// BatchStatusInProgress 初始状态，允许上传文件.
	BatchStatusInProgress BatchStatus = "IN_PROGRESS"
	// BatchStatusCompleted 客户端确认完成.
	BatchStatusCompleted BatchStatus = "COMPLETED"
	// BatchStatusFailed 客户端报告失败.
	BatchStatusFailed BatchStatus = "FAILED"
	// BatchStatusCancelled 客户端取消.
	BatchStatusCancelled BatchStatus = "CANCELLED"
	// BatchStatusNotCompleted 超时未完成，由扫描任务设置.
	BatchStatusNotCompleted BatchStatus = "NOT_COMPLETED"
)

// batchTransitions 合法状态迁移表，终态没有出边.
var batchTransitions = map[BatchStatus][]BatchStatus{
	BatchStatusInProgress: {
		BatchStatusCompleted,
		BatchStatusFailed,
		BatchStatusCancelled,
		BatchStatusNotCompleted,
	},
}

// Valid 是否为已知状态.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchStatusInProgress, BatchStatusCompleted, BatchStatusFailed,
		BatchStatusCancelled, BatchStatusNotCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal 是否为终态.
func (s BatchStatus) IsTerminal() bool {
	return s.Valid() && s != BatchStatusInProgress
}

// CanTransitionTo 判断 s -> next 是否在迁移表中.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	for _, to := range batchTransitions[s] {
		if to == next {
			return true
		}
	}

	return false
}

// SourcesOf 返回可以迁移到 target 的全部状态，用于条件更新.
func SourcesOf(target BatchStatus) []BatchStatus {
	var sources []BatchStatus

	for from, targets := range batchTransitions {
		for _, to := range targets {
			if to == target {
				sources = append(sources, from)
			}
		}
	}

	return sources
}

// Batch 一次上传会话，归属于某个站点.
type Batch struct {
	ID        string      `gorm:"primaryKey;size:36"                                           json:"id"`
	AccountID string      `gorm:"size:64;not null;index"                                       json:"account_id"`
	SiteID    string      `gorm:"size:64;not null;index:idx_batches_site_status"               json:"site_id"`
	Status    BatchStatus `gorm:"size:32;not null;index:idx_batches_site_status;index:idx_batches_status_started" json:"status"`
	// ActiveSiteID 仅在 IN_PROGRESS 时等于 SiteID，终态置空；唯一索引保证每个站点至多一个进行中的批次
	ActiveSiteID       *string    `gorm:"size:64;uniqueIndex:uq_batches_active_site"             json:"-"`
	StoragePath        string     `gorm:"size:1024;not null"                                     json:"storage_path"`
	UploadedFilesCount int        `gorm:"not null"                                               json:"uploaded_files_count"`
	TotalSize          int64      `gorm:"not null"                                               json:"total_size"`
	HasErrors          bool       `gorm:"not null"                                               json:"has_errors"`
	FailureReason      string     `gorm:"type:text"                                              json:"failure_reason,omitempty"`
	StartedAt          time.Time  `gorm:"not null;index:idx_batches_status_started"              json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName 表名.
func (Batch) TableName() string {
	return "batches"
}

// IsActive 批次是否仍接受上传.
func (b *Batch) IsActive() bool {
	return b.Status == BatchStatusInProgress
}
