package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBatchTimeout    = 60 * time.Minute // 批次超时时间
	DefaultBatchSweepCron  = "*/5 * * * *"    // 超时扫描周期
	DefaultBatchSweepLimit = 500              // 超时扫描每页查询的批次数
	DefaultMaxFilesPerCall = 100              // 单次上传请求最多文件数
)

// BatchConfig 批次生命周期配置.
type BatchConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"            rule:"required"`
	SweepCron       string        `mapstructure:"sweep_cron"         rule:"required"`
	SweepLimit      int           `mapstructure:"sweep_limit"        rule:"min=1"`
	MaxFilesPerCall int           `mapstructure:"max_files_per_call" rule:"min=1"`
}

// setDefaults 设置批次配置的默认值.
func (c *BatchConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("batch.timeout", DefaultBatchTimeout)
	v.SetDefault("batch.sweep_cron", DefaultBatchSweepCron)
	v.SetDefault("batch.sweep_limit", DefaultBatchSweepLimit)
	v.SetDefault("batch.max_files_per_call", DefaultMaxFilesPerCall)
}
