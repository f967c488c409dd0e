package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/log"
	"github.com/yeisme/ingestvault/pkg/metrics"
)

const (
	opCreate = "create"
	opDrop   = "drop"

	resultOK     = "ok"
	resultExists = "exists"
	resultAbsent = "absent"
	resultError  = "error"

	partitionBoundLayout = "2006-01-02 15:04:05-07"
)

// PartitionStore 分区 DDL 的执行端，由 db.PartitionRepo 实现.
type PartitionStore interface {
	Exec(ctx context.Context, sql string) error
	TableExists(ctx context.Context, name string) (bool, error)
}

// PartitionScheduler 维护按月分区的错误日志表.
// 所有操作自行记录并吞掉失败，返回值仅表示是否成功.
type PartitionScheduler struct {
	store     PartitionStore
	table     string
	retention int
	clock     clockwork.Clock
}

// NewPartitionScheduler 创建分区维护器.
func NewPartitionScheduler(store PartitionStore, cfg configs.PartitionConfig, clock clockwork.Clock) *PartitionScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	table := cfg.Table
	if table == "" {
		table = configs.DefaultPartitionTable
	}

	retention := cfg.RetentionMonths
	if retention <= 0 {
		retention = configs.DefaultPartitionRetentionMonths
	}

	return &PartitionScheduler{store: store, table: table, retention: retention, clock: clock}
}

// MonthStart 返回 t 所在月份的 UTC 月初.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// PartitionName 返回 <table>_<yyyy>_<MM>.
func PartitionName(table string, month time.Time) string {
	return fmt.Sprintf("%s_%s", table, MonthStart(month).Format("2006_01"))
}

// CreatePartitionSQL 生成覆盖 [月初, 下月初) 的分区 DDL.
func CreatePartitionSQL(table string, month time.Time) string {
	from := MonthStart(month)
	to := from.AddDate(0, 1, 0)

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES FROM ('%s') TO ('%s')",
		PartitionName(table, from), table, from.Format(partitionBoundLayout), to.Format(partitionBoundLayout))
}

// CreatePartition 创建 month 所在月份的分区，已存在视为成功.
func (p *PartitionScheduler) CreatePartition(ctx context.Context, month time.Time) bool {
	name := PartitionName(p.table, month)
	l := p.logger(name)

	err := p.store.Exec(ctx, CreatePartitionSQL(p.table, month))

	switch {
	case err == nil:
		p.record(opCreate, resultOK)
		l.Info().Msg("partition ready")

		return true
	case db.IsAlreadyExists(err):
		p.record(opCreate, resultExists)
		l.Debug().Msg("partition already exists")

		return true
	default:
		p.record(opCreate, resultError)
		l.Error().Err(service.SchedulerError(err, "create partition %s", name)).Msg("create partition failed")

		return false
	}
}

// DropPartition 删除 month 所在月份的分区，不存在时为空操作.
func (p *PartitionScheduler) DropPartition(ctx context.Context, month time.Time) bool {
	name := PartitionName(p.table, month)
	l := p.logger(name)

	exists, err := p.store.TableExists(ctx, name)
	if err != nil {
		p.record(opDrop, resultError)
		l.Error().Err(service.SchedulerError(err, "check partition %s", name)).Msg("check partition failed")

		return false
	}

	if !exists {
		p.record(opDrop, resultAbsent)
		l.Debug().Msg("partition absent, nothing to drop")

		return true
	}

	if err := p.store.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", name)); err != nil {
		p.record(opDrop, resultError)
		l.Error().Err(service.SchedulerError(err, "drop partition %s", name)).Msg("drop partition failed")

		return false
	}

	p.record(opDrop, resultOK)
	l.Info().Msg("partition dropped")

	return true
}

// CreateNextMonthPartition 提前创建下个月的分区.
func (p *PartitionScheduler) CreateNextMonthPartition(ctx context.Context) bool {
	return p.CreatePartition(ctx, MonthStart(p.clock.Now()).AddDate(0, 1, 0))
}

// DropOldPartitions 删除超出保留期的那个月的分区.
func (p *PartitionScheduler) DropOldPartitions(ctx context.Context) bool {
	return p.DropPartition(ctx, MonthStart(p.clock.Now()).AddDate(0, -p.retention, 0))
}

// InitializePartitions 启动时确保当月与下月分区存在.
func (p *PartitionScheduler) InitializePartitions(ctx context.Context) bool {
	current := p.CreatePartition(ctx, p.clock.Now())
	next := p.CreateNextMonthPartition(ctx)

	return current && next
}

// Maintain 定时任务入口：创建下月分区并清理过期分区.
func (p *PartitionScheduler) Maintain(ctx context.Context) bool {
	created := p.CreateNextMonthPartition(ctx)
	dropped := p.DropOldPartitions(ctx)

	return created && dropped
}

func (p *PartitionScheduler) logger(partition string) zerolog.Logger {
	return log.Component("jobs").With().Str("job", JobPartitionMaintain).Str("partition", partition).Logger()
}

func (p *PartitionScheduler) record(op, result string) {
	metrics.PartitionOperations.WithLabelValues(op, result).Inc()
}
