package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/internal/handle"
)

// RegisterErrorRoutes 注册独立错误日志路由.
func RegisterErrorRoutes(g *gin.RouterGroup) {
	errorRoutes := g.Group("/errors")
	{
		errorRoutes.POST("", handle.LogError)
		errorRoutes.GET("/:id", handle.GetError)
	}
}
