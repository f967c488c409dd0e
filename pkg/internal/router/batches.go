package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/internal/handle"
)

// RegisterBatchRoutes 注册批次生命周期、文件上传与批次错误路由.
func RegisterBatchRoutes(g *gin.RouterGroup) {
	batchRoutes := g.Group("/batches")
	{
		batchRoutes.POST("", handle.StartBatch)

		single := batchRoutes.Group("/:id")
		{
			single.GET("", handle.GetBatch)
			single.POST("/complete", handle.CompleteBatch)
			single.POST("/fail", handle.FailBatch)
			single.POST("/cancel", handle.CancelBatch)

			// 文件
			single.POST("/files", handle.UploadFiles)
			single.GET("/files", handle.ListFiles)
			single.GET("/files/:fileId", handle.GetFile)

			// 批次错误
			single.POST("/errors", handle.LogBatchError)
			single.GET("/errors", handle.ListBatchErrors)
		}
	}
}
