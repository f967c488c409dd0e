package configs

import (
	"github.com/spf13/viper"
)

const DefaultMetricsPath = "/metrics"

// MetricsConfig Prometheus 指标配置，指标挂在业务 HTTP 端口上.
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	Path           string            `mapstructure:"path"            rule:"omitempty,startswith=/"`
	RuntimeMetrics bool              `mapstructure:"runtime_metrics"` // Go 运行时与进程指标
	Pprof          bool              `mapstructure:"pprof"`           // 同时暴露 /debug/pprof
	DBMetrics      bool              `mapstructure:"db_metrics"`      // gorm 连接池指标
	Labels         map[string]string `mapstructure:"labels"`          // 附加到业务指标上的常量标签，如 region
}

// GetPath 返回指标路径.
func (c *MetricsConfig) GetPath() string {
	if c.Path == "" {
		return DefaultMetricsPath
	}

	return c.Path
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", DefaultMetricsPath)
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("metrics.db_metrics", true)
	v.SetDefault("metrics.labels", map[string]string{})
}
