package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/ingestvault/pkg/internal/model"
)

// FileRepo 已上传文件仓储.
type FileRepo struct {
	db *gorm.DB
}

// NewFileRepo 创建文件仓储.
func NewFileRepo(c *Client) *FileRepo {
	return &FileRepo{db: c.DB}
}

// Create 在同一事务中写入文件元数据并累加批次计数.
// 批次已离开 IN_PROGRESS 时整体回滚并返回 ErrBatchNotActive；同名文件返回 ErrDuplicateKey.
func (r *FileRepo) Create(ctx context.Context, f *model.UploadedFile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(f).Error; err != nil {
			return fmt.Errorf("create uploaded file: %w", translate(err))
		}

		res := tx.Model(&model.Batch{}).
			Where("id = ? AND status = ?", f.BatchID, model.BatchStatusInProgress).
			Updates(map[string]any{
				"uploaded_files_count": gorm.Expr("uploaded_files_count + ?", 1),
				"total_size":           gorm.Expr("total_size + ?", f.FileSize),
			})
		if res.Error != nil {
			return fmt.Errorf("increment batch counters: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrBatchNotActive
		}

		return nil
	})
}

// ExistsByName 批次内是否已有同名文件.
func (r *FileRepo) ExistsByName(ctx context.Context, batchID, name string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).Model(&model.UploadedFile{}).
		Where("batch_id = ? AND original_file_name = ?", batchID, name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count uploaded files: %w", err)
	}

	return count > 0, nil
}

// Get 查询批次内的文件.
func (r *FileRepo) Get(ctx context.Context, batchID, fileID string) (*model.UploadedFile, error) {
	var f model.UploadedFile

	err := r.db.WithContext(ctx).
		Where("id = ? AND batch_id = ?", fileID, batchID).
		Take(&f).Error
	if err != nil {
		return nil, fmt.Errorf("get uploaded file %s: %w", fileID, err)
	}

	return &f, nil
}

// ListByBatch 按上传顺序列出批次内的文件.
func (r *FileRepo) ListByBatch(ctx context.Context, batchID string) ([]model.UploadedFile, error) {
	var files []model.UploadedFile

	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list uploaded files: %w", err)
	}

	return files, nil
}
