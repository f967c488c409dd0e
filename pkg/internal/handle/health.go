package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/configs"
	ctxPkg "github.com/yeisme/ingestvault/pkg/context"
	"github.com/yeisme/ingestvault/pkg/internal/storage"
)

const timeout = 2 * time.Second

// Health 汇总各存储组件的健康状态，任一组件异常返回 503.
func Health(c *gin.Context) {
	mgr := ctxPkg.GetManager(c.Request.Context())
	if mgr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "storage not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	status := http.StatusOK
	components := gin.H{}

	for name, err := range mgr.HealthCheck(ctx) {
		if err != nil {
			status = http.StatusServiceUnavailable
			components[name] = gin.H{"status": "unhealthy", "error": err.Error()}

			continue
		}

		components[name] = gin.H{"status": "ok"}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"version":    configs.AppVersion,
		"components": components,
	})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil {
		unhealthy(c, "db", "db client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := dbc.Ping(ctx); err != nil {
		unhealthy(c, "db", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "db", "status": "ok"})
}

// HealthBlob 对象存储健康检查.
func HealthBlob(c *gin.Context) {
	blob := ctxPkg.GetBlobStore(c.Request.Context())
	if blob == nil {
		unhealthy(c, "blob", "blob store not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := blob.HealthCheck(ctx); err != nil {
		unhealthy(c, "blob", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "blob", "status": "ok"})
}

// HealthKV 站点缓存所用 KV 的健康检查.
func HealthKV(c *gin.Context) {
	kv := ctxPkg.GetKVClient(c.Request.Context())
	if kv == nil {
		c.JSON(http.StatusOK, gin.H{"component": "kv", "status": "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := storage.PingKV(ctx, kv); err != nil {
		unhealthy(c, "kv", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "kv", "status": "ok", "type": kv.Type()})
}

// HealthMQ 消息队列健康检查；事件发布关闭时 MQ 未初始化，视为 disabled.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil {
		c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "disabled"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok", "type": mqc.Type()})
}

func unhealthy(c *gin.Context, component, msg string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": msg})
}
