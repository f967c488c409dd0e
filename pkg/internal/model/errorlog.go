package model

import "time"

// ErrorLog 客户端上报的错误记录，只追加不修改；按 OccurredAt 月份分区存储.
type ErrorLog struct {
	ID         string    `gorm:"primaryKey;size:26"        json:"id"`
	SiteID     string    `gorm:"size:64;not null;index"    json:"site_id"`
	BatchID    *string   `gorm:"size:36;index"             json:"batch_id,omitempty"`
	Type       string    `gorm:"size:128;not null"         json:"type"`
	Title      string    `gorm:"size:512;not null"         json:"title"`
	Message    string    `gorm:"type:text;not null"        json:"message"`
	StackTrace *string   `gorm:"type:text"                 json:"stack_trace,omitempty"`
	Metadata   Metadata  `gorm:"type:text"                 json:"metadata"`
	OccurredAt time.Time `gorm:"not null;index"            json:"occurred_at"`
}

// TableName 表名，PostgreSQL 下为分区父表.
func (ErrorLog) TableName() string {
	return "error_logs"
}

// IsStandalone 是否为不关联批次的错误.
func (e *ErrorLog) IsStandalone() bool {
	return e.BatchID == nil
}
