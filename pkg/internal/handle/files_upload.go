package handle

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/internal/types"
	"github.com/yeisme/ingestvault/pkg/log"
	"github.com/yeisme/ingestvault/pkg/middleware"
)

// UploadFiles 接收 multipart 表单中的 files 字段（可重复），依次写入批次.
// 失败时响应体同时带上失败前已入库的文件.
func UploadFiles(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			badRequest(c, err)
			return
		}

		respondError(c, service.InvalidArgument(err, "read multipart form"))

		return
	}

	defer func() {
		if err := form.RemoveAll(); err != nil {
			log.Ctx(c.Request.Context()).Warn().Err(err).Msg("remove multipart temp files")
		}
	}()

	headers := form.File[types.UploadFormField]

	files := make([]service.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))

	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(c, service.IOError(err, "open uploaded part %q", fh.Filename))
			return
		}

		opened = append(opened, f)
		files = append(files, service.UploadFile{
			Name:        fh.Filename,
			Content:     f,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	batchID := c.Param("id")

	created, err := svcs.Files.Upload(c.Request.Context(), batchID, middleware.GetIdentity(c), files)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(service.HTTPStatus(err), types.UploadFilesResponse{
			BatchID: batchID,
			Files:   created,
			Error:   service.Message(err),
		})

		return
	}

	c.JSON(http.StatusCreated, types.UploadFilesResponse{BatchID: batchID, Files: created})
}
