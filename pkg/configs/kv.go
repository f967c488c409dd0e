package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KV 类型.
const (
	KVTypeMemory = "memory"
	KVTypeRedis  = "redis"
	KVTypeNATS   = "nats"
)

// DefaultSiteCacheTTL 站点信息缓存时间.
const DefaultSiteCacheTTL = 5 * time.Minute

// KVConfig 键值存储配置.
type KVConfig struct {
	Type         string        `mapstructure:"type"           rule:"oneof=memory redis nats"`
	SiteCacheTTL time.Duration `mapstructure:"site_cache_ttl"` // 站点信息缓存 TTL，<=0 关闭缓存
	Redis        RedisKVConfig `mapstructure:"redis"`
	NATS         NATSKVConfig  `mapstructure:"nats"`
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
	// KeyPrefix 与其他服务共用同一个 Redis 库时隔离键空间
	KeyPrefix string `mapstructure:"key_prefix"`
}

// NATSKVConfig NATS KV 配置.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"      rule:"hostname_port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"   rule:"required"`
}

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", KVTypeMemory)
	v.SetDefault("kv.site_cache_ttl", DefaultSiteCacheTTL)

	// Redis 默认值
	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.key_prefix", AppName+":")

	// NATS 默认值
	v.SetDefault("kv.nats.url", "localhost:4222")
	v.SetDefault("kv.nats.user", "")
	v.SetDefault("kv.nats.password", "")
	v.SetDefault("kv.nats.bucket", "ingestvault-kv")
}
