package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Role 表示请求方的角色，数值越大权限越高.
type Role int

const (
	RoleSite Role = iota + 1
	RoleAdmin
)

const roleKey = "role"

// String 返回角色的字符串表示.
func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}

	return "site"
}

// parseRole 从字符串解析角色，未知值降级为 site.
func parseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), "admin") {
		return RoleAdmin
	}

	return RoleSite
}

// GetRole 从 gin.Context 获取当前请求角色.
func GetRole(c *gin.Context) Role {
	if v, ok := c.Get(roleKey); ok {
		if r, ok := v.(Role); ok {
			return r
		}
	}

	if GetIdentity(c).Admin {
		return RoleAdmin
	}

	return RoleSite
}

// RequireMinRole 要求最小角色，不满足则返回 403.
func RequireMinRole(minRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) < minRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.Next()
	}
}
