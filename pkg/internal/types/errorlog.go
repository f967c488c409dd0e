package types

import (
	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/service"
)

const (
	// DefaultErrorListLimit 批次错误列表默认条数.
	DefaultErrorListLimit = 100
)

// LogErrorRequest 上报错误日志；字段校验由 service 完成，保证 HTTP 与其他入口一致.
type LogErrorRequest struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	StackTrace *string        `json:"stack_trace,omitempty"`
	Metadata   model.Metadata `json:"metadata,omitempty"`
}

// ToInput 转换为 service 入参.
func (r *LogErrorRequest) ToInput() service.LogErrorInput {
	return service.LogErrorInput{
		Type:       r.Type,
		Title:      r.Title,
		Message:    r.Message,
		StackTrace: r.StackTrace,
		Metadata:   r.Metadata,
	}
}

// ListErrorsQuery 批次错误列表查询参数.
type ListErrorsQuery struct {
	Limit int `form:"limit" rule:"omitempty,min=1,max=1000"`
}

// ListErrorsResponse 批次错误列表.
type ListErrorsResponse struct {
	BatchID string           `json:"batch_id"`
	Errors  []model.ErrorLog `json:"errors"`
}
