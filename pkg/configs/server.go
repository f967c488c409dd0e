package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort            = 8080      // 监听端口
	DefaultHost            = "0.0.0.0" // 监听地址
	DefaultReloadConfig    = true      // 是否启用配置热重载
	DefaultDebug           = false     // 是否启用调试模式
	DefaultTimeout         = 30        // 读请求头超时，单位秒
	DefaultShutdownTimeout = 15        // 优雅停机等待时间，单位秒
	DefaultUploadMemoryMB  = 32        // multipart 解析时驻留内存的上限，超出部分落临时文件
)

type (
	// ServerConfig HTTP 服务配置.
	ServerConfig struct {
		Port            int    `mapstructure:"port"             rule:"min=1,max=65535"`
		Host            string `mapstructure:"host"             rule:"ip"`
		ReloadConfig    bool   `mapstructure:"reload_config"`
		Debug           bool   `mapstructure:"debug"`
		Timeout         int    `mapstructure:"timeout"          rule:"min=1,max=300"`
		ShutdownTimeout int    `mapstructure:"shutdown_timeout" rule:"min=0,max=300"`
		UploadMemoryMB  int64  `mapstructure:"upload_memory_mb" rule:"min=0"`
	}
)

// GetTimeoutDuration 返回读请求头超时.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// GetShutdownTimeout 返回停机等待时间，未配置时取默认值.
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return DefaultShutdownTimeout * time.Second
	}

	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetUploadMemory 返回 multipart 内存上限（字节）.
func (s *ServerConfig) GetUploadMemory() int64 {
	if s.UploadMemoryMB <= 0 {
		return DefaultUploadMemoryMB << 20
	}

	return s.UploadMemoryMB << 20
}

func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.upload_memory_mb", DefaultUploadMemoryMB)
}
