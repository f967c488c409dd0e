package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/configs"
)

// CORSMiddleware CORS中间件，放行网关注入的身份头.
func CORSMiddleware(auth configs.AuthConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowFiles = true
	config.AddAllowHeaders(
		headerOr(auth.SiteHeader, configs.DefaultSiteHeader),
		headerOr(auth.AccountHeader, configs.DefaultAccountHeader),
		headerOr(auth.RoleHeader, configs.DefaultRoleHeader),
	)

	return cors.New(config)
}
