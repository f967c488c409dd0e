package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/ingestvault/pkg/log"
	"github.com/yeisme/ingestvault/pkg/metrics"
	"github.com/yeisme/ingestvault/pkg/rule"
	"github.com/yeisme/ingestvault/pkg/tracing"
)

// DefaultContentType 客户端未声明类型时使用.
const DefaultContentType = "application/octet-stream"

// UploadFile 一个待入库的文件；Size 未知时为 -1.
type UploadFile struct {
	Name        string
	Content     io.Reader
	Size        int64
	ContentType string
}

// FileService 负责把文件写入活动批次（存储、校验和、元数据），不处理 HTTP 细节.
type FileService struct {
	batches  *BatchService
	files    FileStore
	blobs    s3.BlobStore
	events   EventPublisher
	clock    clockwork.Clock
	maxFiles int
}

// NewFileService 创建文件服务；maxFiles<=0 表示不限制单次请求文件数.
func NewFileService(batches *BatchService, files FileStore, blobs s3.BlobStore, maxFiles int, opts ...Option) *FileService {
	o := buildOptions(opts)

	return &FileService{
		batches:  batches,
		files:    files,
		blobs:    blobs,
		events:   o.events,
		clock:    o.clock,
		maxFiles: maxFiles,
	}
}

// Upload 依次写入文件，第一个失败即中止；返回失败前已入库的记录与错误.
// 批次存在、归属与状态先于文件列表校验，且只在写入任何文件前检查一次.
func (s *FileService) Upload(ctx context.Context, batchID string, actor model.Identity,
	files []UploadFile,
) (created []model.UploadedFile, err error) {
	ctx, span := tracing.StartSpan(ctx, "FileService.Upload")
	defer func() { tracing.EndSpan(span, err) }()

	b, err := s.batches.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if !actor.Owns(b.SiteID) {
		return nil, Forbidden()
	}

	if !b.IsActive() {
		return nil, Conflict("cannot upload to completed batch")
	}

	// 文件列表只在调用方有权写入后才校验，越权请求一律得到 Forbidden
	if err := s.validate(files); err != nil {
		return nil, err
	}

	created = make([]model.UploadedFile, 0, len(files))

	for i := range files {
		rec, err := s.store(ctx, b, &files[i])
		if err != nil {
			metrics.UploadFailures.WithLabelValues(failureReason(err)).Inc()
			nlog.Ctx(ctx).Warn().Err(err).
				Str("batch_id", b.ID).
				Str("site_id", b.SiteID).
				Str("file", files[i].Name).
				Int("stored", len(created)).
				Msg("upload aborted")

			return created, err
		}

		created = append(created, *rec)
	}

	nlog.Ctx(ctx).Info().
		Str("batch_id", b.ID).
		Str("site_id", b.SiteID).
		Int("files", len(created)).
		Msg("files uploaded")

	return created, nil
}

func (s *FileService) validate(files []UploadFile) error {
	if len(files) == 0 {
		return InvalidArgument(nil, "no files in request")
	}

	if s.maxFiles > 0 && len(files) > s.maxFiles {
		return InvalidArgument(nil, "too many files: %d > %d", len(files), s.maxFiles)
	}

	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if !rule.ValidFileName(f.Name) {
			return InvalidArgument(nil, "invalid file name %q", f.Name)
		}

		if f.Content == nil {
			return InvalidArgument(nil, "file %q has no content", f.Name)
		}

		if _, dup := seen[f.Name]; dup {
			return Conflict("file %q appears more than once in request", f.Name)
		}

		seen[f.Name] = struct{}{}
	}

	return nil
}

// store 写入单个文件：查重、流式写入并计算校验和、事务内落库并累加计数.
func (s *FileService) store(ctx context.Context, b *model.Batch, f *UploadFile) (*model.UploadedFile, error) {
	exists, err := s.files.ExistsByName(ctx, b.ID, f.Name)
	if err != nil {
		return nil, IOError(err, "check file %q", f.Name)
	}

	if exists {
		return nil, Conflict("file %q already exists in batch", f.Name)
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	key := b.StoragePath + "/" + f.Name

	res, err := s.blobs.Put(ctx, key, f.Content, f.Size, contentType)
	if err != nil {
		return nil, IOError(err, "store file %q", f.Name)
	}

	rec := &model.UploadedFile{
		ID:               uuid.NewString(),
		BatchID:          b.ID,
		OriginalFileName: f.Name,
		StorageKey:       key,
		FileSize:         res.Size,
		ContentType:      contentType,
		Checksum:         res.Checksum,
		CreatedAt:        s.clock.Now().UTC(),
	}

	if err := s.files.Create(ctx, rec); err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicateKey):
			// 并发的同名上传已经落库，对象键属于胜者，不能删除
			return nil, Conflict("file %q already exists in batch", f.Name)
		case errors.Is(err, db.ErrBatchNotActive):
			s.removeOrphan(ctx, key)

			return nil, Conflict("cannot upload to completed batch")
		default:
			s.removeOrphan(ctx, key)

			return nil, IOError(err, "save metadata of file %q", f.Name)
		}
	}

	metrics.UploadedFiles.Inc()
	metrics.UploadedBytes.Add(float64(rec.FileSize))
	s.events.FileStored(ctx, b, rec)

	return rec, nil
}

// removeOrphan 元数据未落库时尽力删除已写入的对象.
func (s *FileService) removeOrphan(ctx context.Context, key string) {
	if err := s.blobs.Remove(context.WithoutCancel(ctx), key); err != nil {
		nlog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("remove orphan object failed")
	}
}

// GetFile 读取文件元数据，管理员可跨租户读取.
func (s *FileService) GetFile(ctx context.Context, batchID, fileID string, actor model.Identity) (*model.UploadedFile, error) {
	if _, err := s.batches.GetForActor(ctx, batchID, actor); err != nil {
		return nil, err
	}

	f, err := s.files.Get(ctx, batchID, fileID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFound("file %s not found", fileID)
		}

		return nil, IOError(err, "load file %s", fileID)
	}

	return f, nil
}

// ListFiles 按上传顺序列出批次内的文件.
func (s *FileService) ListFiles(ctx context.Context, batchID string, actor model.Identity) ([]model.UploadedFile, error) {
	if _, err := s.batches.GetForActor(ctx, batchID, actor); err != nil {
		return nil, err
	}

	files, err := s.files.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, IOError(err, "list files of batch %s", batchID)
	}

	return files, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "other"
	}
}
