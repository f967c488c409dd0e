package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Batch   BatchEventsConfig `mapstructure:"batch"`
	File    FileEventsConfig  `mapstructure:"file"`
	Error   ErrorEventsConfig `mapstructure:"error"`
}

// BatchEventsConfig 批次生命周期事件开关。
type BatchEventsConfig struct {
	Started   bool `mapstructure:"started"`
	Completed bool `mapstructure:"completed"`
	Failed    bool `mapstructure:"failed"`
	Cancelled bool `mapstructure:"cancelled"`
	Expired   bool `mapstructure:"expired"`
}

// FileEventsConfig 文件上传事件开关。
type FileEventsConfig struct {
	Stored bool `mapstructure:"stored"`
}

// ErrorEventsConfig 错误日志事件开关。
type ErrorEventsConfig struct {
	Logged bool `mapstructure:"logged"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认关闭，接入 MQ 后再开启
	v.SetDefault("events.enabled", false)

	// 批次终态事件默认开启，下游据此触发处理
	v.SetDefault("events.batch.started", true)
	v.SetDefault("events.batch.completed", true)
	v.SetDefault("events.batch.failed", true)
	v.SetDefault("events.batch.cancelled", true)
	v.SetDefault("events.batch.expired", true)

	// 单文件事件量可能很大，默认关闭
	v.SetDefault("events.file.stored", false)
	v.SetDefault("events.error.logged", true)
}
