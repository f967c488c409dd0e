package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/internal/handle"
	"github.com/yeisme/ingestvault/pkg/middleware"
)

// RegisterSchedulerRoutes 注册调度器管理路由，仅 admin 可访问.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	adminRoutes := g.Group("/admin",
		middleware.RequireMinRole(middleware.RoleAdmin),
		middleware.RequireScheduler(),
	)
	{
		adminRoutes.GET("/scheduler/jobs", handle.SchedulerJobs)
		adminRoutes.POST("/scheduler/jobs/:name/run", handle.SchedulerRunJob)
		adminRoutes.DELETE("/scheduler/jobs/:name", handle.SchedulerRemoveJob)
	}
}
