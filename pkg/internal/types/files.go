package types

import "github.com/yeisme/ingestvault/pkg/internal/model"

// UploadFormField multipart 表单中文件字段名，可重复.
const UploadFormField = "files"

// UploadFilesResponse 上传结果；失败时 Files 为失败前已入库的文件.
type UploadFilesResponse struct {
	BatchID string               `json:"batch_id"`
	Files   []model.UploadedFile `json:"files"`
	Error   string               `json:"error,omitempty"`
}

// ListFilesResponse 批次下的文件列表.
type ListFilesResponse struct {
	BatchID string               `json:"batch_id"`
	Files   []model.UploadedFile `json:"files"`
	Total   int                  `json:"total"`
}
