package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/configs"
	ctxPkg "github.com/yeisme/ingestvault/pkg/context"
	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/log"
)

const identityKey = "identity"

// IdentityMiddleware 读取网关注入的身份请求头并写入 gin.Context 与 request.Context。
//   - 站点请求必须同时携带站点 ID 与账户 ID
//   - 角色为 admin 时可以不带站点，只获得跨租户只读权限
//   - 支持通过配置跳过某些路径（如 /metrics, /api/v1/health）
//
// 令牌校验由前置网关负责，这里不解析任何令牌.
func IdentityMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	siteHeader := headerOr(conf.SiteHeader, configs.DefaultSiteHeader)
	accountHeader := headerOr(conf.AccountHeader, configs.DefaultAccountHeader)
	roleHeader := headerOr(conf.RoleHeader, configs.DefaultRoleHeader)

	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		role := parseRole(c.GetHeader(roleHeader))
		id := model.Identity{
			SiteID:    strings.TrimSpace(c.GetHeader(siteHeader)),
			AccountID: strings.TrimSpace(c.GetHeader(accountHeader)),
			Admin:     role >= RoleAdmin,
		}

		if conf.Enabled && !id.Admin && (id.SiteID == "" || id.AccountID == "") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(identityKey, id)
		c.Set(roleKey, role)

		reqLog := log.Logger().With().Str("site_id", id.SiteID).Str("account_id", id.AccountID).Logger()
		ctx := ctxPkg.WithIdentity(c.Request.Context(), id)
		c.Request = c.Request.WithContext(reqLog.WithContext(ctx))
		c.Next()
	}
}

// GetIdentity 获取当前请求的调用方身份，未注入时返回零值.
func GetIdentity(c *gin.Context) model.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(model.Identity); ok {
			return id
		}
	}

	id, _ := ctxPkg.GetIdentity(c.Request.Context())

	return id
}

func headerOr(h, def string) string {
	if strings.TrimSpace(h) == "" {
		return def
	}

	return h
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
