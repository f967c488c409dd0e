// Package router 管理路由配置，将 handle 中的处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"
)

// APIPrefix 业务接口前缀.
const APIPrefix = "/api/v1"

// Register 注册全部业务路由：
//
//	/api/v1/health/...          健康检查（免身份）
//	/api/v1/batches/...         批次、文件与批次错误
//	/api/v1/errors/...          独立错误日志
//	/api/v1/admin/scheduler/... 调度器管理（仅 admin）
func Register(e *gin.Engine) {
	g := e.Group(APIPrefix)

	RegisterHealthCheckRoute(g)
	RegisterBatchRoutes(g)
	RegisterErrorRoutes(g)
	RegisterSchedulerRoutes(g)
}
