package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/ingestvault/pkg/context"
	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/internal/storage"
)

type servicesKey struct{}

// StorageMiddleware 将存储管理器注入到 request.Context.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxPkg.WithStorageManager(c.Request.Context(), manager))
		c.Next()
	}
}

// ServicesMiddleware 将业务服务注入到 request.Context.
func ServicesMiddleware(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), servicesKey{}, svcs))
		c.Next()
	}
}

// GetServices 从 request.Context 获取业务服务.
func GetServices(c *gin.Context) *service.Services {
	if svcs, ok := c.Request.Context().Value(servicesKey{}).(*service.Services); ok {
		return svcs
	}

	return nil
}
