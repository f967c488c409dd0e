// Package jobs 实现批次超时回收与错误日志分区维护两个后台任务，并注册到 scheduler.
package jobs

import (
	"context"
	"fmt"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/scheduler"
)

// Jobs 后台任务集合，partitions 为空表示不做分区维护.
type Jobs struct {
	Timeout    *BatchTimeoutScheduler
	Partitions *PartitionScheduler
}

// RegisterCronJobs 配置业务定时任务：
//   - 按 batch.sweep_cron 回收超时批次（默认每 5 分钟）
//   - 按 partition.cron 创建下月分区并删除过期分区（默认每月 1 日 00:00）
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, jobs Jobs, cfg *configs.AppConfig) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if jobs.Timeout == nil {
		return fmt.Errorf("batch timeout scheduler is nil")
	}

	err := sched.AddCron(ctx, JobBatchTimeoutSweep, cfg.Batch.SweepCron, func(ctx context.Context) error {
		return jobs.Timeout.Sweep(ctx).Err
	})
	if err != nil {
		return err
	}

	if jobs.Partitions == nil {
		return nil
	}

	return sched.AddCron(ctx, JobPartitionMaintain, cfg.Partition.Cron, func(ctx context.Context) error {
		if !jobs.Partitions.Maintain(ctx) {
			return fmt.Errorf("partition maintenance incomplete, see logs")
		}

		return nil
	})
}
