package configs

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRateLimitEnabled     = false
	DefaultRateLimitRPS         = 50.0
	DefaultRateLimitBurst       = 100
	DefaultRateLimitKey         = RateKeySite
	DefaultRateLimitIdleSeconds = 600
)

// 限流维度.
const (
	RateKeyGlobal       = "global"
	RateKeyIP           = "ip"
	RateKeySite         = "site"
	RateKeyHeaderPrefix = "header:"
)

// RateLimitConfig 请求限流配置，默认按站点分桶，单个租户刷请求不会挤占其他站点.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"min=0"`
	Burst   int     `mapstructure:"burst" rule:"min=0"`
	// Key 取值 global、ip、site 或 header:Header-Name
	Key         string `mapstructure:"key"`
	IdleSeconds int    `mapstructure:"idle_seconds" rule:"min=0"` // 分桶闲置多久后回收
}

// KeyMode 返回规范化后的限流维度，无法识别时退回 ip.
func (c *RateLimitConfig) KeyMode() string {
	mode := strings.TrimSpace(c.Key)
	lower := strings.ToLower(mode)

	switch {
	case lower == "":
		return RateKeyGlobal
	case lower == RateKeyGlobal, lower == RateKeyIP, lower == RateKeySite:
		return lower
	case strings.HasPrefix(lower, RateKeyHeaderPrefix) && len(mode) > len(RateKeyHeaderPrefix):
		return RateKeyHeaderPrefix + mode[len(RateKeyHeaderPrefix):]
	default:
		return RateKeyIP
	}
}

// IdleTTL 返回分桶回收时间.
func (c *RateLimitConfig) IdleTTL() time.Duration {
	if c.IdleSeconds <= 0 {
		return DefaultRateLimitIdleSeconds * time.Second
	}

	return time.Duration(c.IdleSeconds) * time.Second
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.idle_seconds", DefaultRateLimitIdleSeconds)
}
