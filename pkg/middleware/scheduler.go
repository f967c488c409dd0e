package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/scheduler"
)

const schedulerKey = "scheduler"

// SchedulerMiddleware 把后台任务调度器挂到 gin.Context；sched 为 nil 表示本进程不跑后台任务.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sched != nil {
			c.Set(schedulerKey, sched)
		}

		c.Next()
	}
}

// RequireScheduler 调度器缺席时直接返回 503.
func RequireScheduler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetScheduler(c) == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
			return
		}

		c.Next()
	}
}

// GetScheduler 取出调度器，未注入时返回 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	v, ok := c.Get(schedulerKey)
	if !ok {
		return nil
	}

	sched, _ := v.(*scheduler.Scheduler)

	return sched
}
