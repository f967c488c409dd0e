package configs

import "github.com/spf13/viper"

const (
	// 网关注入的身份请求头.
	DefaultSiteHeader    = "X-Site-ID"
	DefaultAccountHeader = "X-Account-ID"
	DefaultRoleHeader    = "X-Role"
)

// AuthConfig 控制身份请求头解析（令牌校验由前置网关完成，本服务只读取注入的身份）。
type AuthConfig struct {
	Enabled       bool     `mapstructure:"enabled"`        // 开启身份校验
	SkipPaths     []string `mapstructure:"skip_paths"`     // 跳过校验的路径前缀（如 /metrics、/api/v1/health）
	SiteHeader    string   `mapstructure:"site_header"`    // 站点 ID 请求头
	AccountHeader string   `mapstructure:"account_header"` // 账户 ID 请求头
	RoleHeader    string   `mapstructure:"role_header"`    // 角色请求头，admin 可跨租户只读
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.site_header", DefaultSiteHeader)
	v.SetDefault("auth.account_header", DefaultAccountHeader)
	v.SetDefault("auth.role_header", DefaultRoleHeader)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
	})
}
