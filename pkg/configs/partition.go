package configs

import "github.com/spf13/viper"

const (
	DefaultPartitionTable           = "error_logs" // 分区父表
	DefaultPartitionRetentionMonths = 24           // 保留月数
	DefaultPartitionCron            = "0 0 1 * *"  // 每月 1 日 00:00
)

// PartitionConfig 错误日志按月分区的维护配置，仅对 PostgreSQL 生效.
type PartitionConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Table           string `mapstructure:"table"            rule:"required"`
	RetentionMonths int    `mapstructure:"retention_months" rule:"min=1"`
	Cron            string `mapstructure:"cron"             rule:"required"`
	InitOnStartup   bool   `mapstructure:"init_on_startup"`
}

// setDefaults 设置分区配置的默认值.
func (c *PartitionConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("partition.enabled", true)
	v.SetDefault("partition.table", DefaultPartitionTable)
	v.SetDefault("partition.retention_months", DefaultPartitionRetentionMonths)
	v.SetDefault("partition.cron", DefaultPartitionCron)
	v.SetDefault("partition.init_on_startup", true)
}
