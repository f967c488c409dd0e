package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/middleware"
	"github.com/yeisme/ingestvault/pkg/scheduler"
)

// SchedulerJobs 返回所有后台任务的运行状态.
func SchedulerJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": middleware.GetScheduler(c).GetJobInfos()})
}

// SchedulerRunJob 立即触发一次指定任务，不等待其结束.
func SchedulerRunJob(c *gin.Context) {
	name := c.Param("name")
	if err := middleware.GetScheduler(c).RunNow(name); err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered", "job": name})
}

// SchedulerRemoveJob 按名称移除任务，进程重启后会重新注册.
func SchedulerRemoveJob(c *gin.Context) {
	name := c.Param("name")
	if err := middleware.GetScheduler(c).RemoveJobByName(name); err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed", "job": name})
}

func schedulerError(c *gin.Context, err error) {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	respondError(c, err)
}
