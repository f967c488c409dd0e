package model

import "time"

// UploadedFile 批次内已入库的文件，创建后不可变.
type UploadedFile struct {
	ID      string `gorm:"primaryKey;size:36"                                json:"id"`
	BatchID string `gorm:"size:36;not null;uniqueIndex:uq_files_batch_name" json:"batch_id"`
	// 同一批次内文件名唯一；上传失败未写入元数据的文件不占用名称
	OriginalFileName string    `gorm:"size:512;not null;uniqueIndex:uq_files_batch_name" json:"original_file_name"`
	StorageKey       string    `gorm:"size:1024;not null"                                json:"storage_key"`
	FileSize         int64     `gorm:"not null"                                          json:"file_size"`
	ContentType      string    `gorm:"size:255"                                          json:"content_type"`
	Checksum         string    `gorm:"size:64;not null"                                  json:"checksum"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName 表名.
func (UploadedFile) TableName() string {
	return "uploaded_files"
}
