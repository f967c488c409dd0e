// Package types 定义 HTTP 请求与响应结构.
package types

import "github.com/yeisme/ingestvault/pkg/internal/model"

// FailBatchRequest 客户端上报批次失败.
type FailBatchRequest struct {
	Reason string `json:"reason" rule:"max=2048"`
}

// BatchResponse 批次详情.
type BatchResponse struct {
	Batch *model.Batch `json:"batch"`
}
