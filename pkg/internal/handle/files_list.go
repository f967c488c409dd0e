package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/internal/types"
	"github.com/yeisme/ingestvault/pkg/middleware"
)

// ListFiles 列出批次内已入库的文件.
func ListFiles(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	batchID := c.Param("id")

	files, err := svcs.Files.ListFiles(c.Request.Context(), batchID, middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ListFilesResponse{BatchID: batchID, Files: files, Total: len(files)})
}

// GetFile 读取单个文件的元数据.
func GetFile(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	f, err := svcs.Files.GetFile(c.Request.Context(), c.Param("id"), c.Param("fileId"), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, f)
}
