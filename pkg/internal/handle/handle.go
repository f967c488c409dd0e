// Package handle 提供请求处理器的实现，只做参数解析与错误映射，业务逻辑在 service 中.
package handle

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/log"
	"github.com/yeisme/ingestvault/pkg/middleware"
	"github.com/yeisme/ingestvault/pkg/rule"
)

// services 获取注入的业务服务，未注入时直接返回 503.
func services(c *gin.Context) (*service.Services, bool) {
	svcs := middleware.GetServices(c)
	if svcs == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "services not initialized"})
		return nil, false
	}

	return svcs, true
}

// respondError 按错误种类映射状态码；5xx 只返回概要信息，细节写日志.
func respondError(c *gin.Context, err error) {
	status := service.HTTPStatus(err)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	c.AbortWithStatusJSON(status, gin.H{"error": service.Message(err)})
}

// bindJSON 解析并校验请求体；空请求体按零值处理.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return false
	}

	if err := rule.ValidateStruct(req); err != nil {
		badRequest(c, err)
		return false
	}

	return true
}

func badRequest(c *gin.Context, err error) {
	log.Ctx(c.Request.Context()).Warn().Err(err).Str("path", c.FullPath()).Msg("invalid request")

	body := gin.H{"error": "invalid request"}
	if fields := rule.Errors(err); fields != nil {
		body["fields"] = fields
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
