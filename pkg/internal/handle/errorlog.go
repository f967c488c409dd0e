package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/internal/types"
	"github.com/yeisme/ingestvault/pkg/middleware"
	"github.com/yeisme/ingestvault/pkg/rule"
)

// LogBatchError 追加一条属于批次的错误日志.
func LogBatchError(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var req types.LogErrorRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := svcs.Errors.LogForBatch(c.Request.Context(), c.Param("id"), middleware.GetIdentity(c), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

// LogError 追加一条不属于任何批次的错误日志.
func LogError(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var req types.LogErrorRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := svcs.Errors.LogStandalone(c.Request.Context(), middleware.GetIdentity(c), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

// GetError 读取单条错误日志.
func GetError(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	e, err := svcs.Errors.Get(c.Request.Context(), c.Param("id"), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// ListBatchErrors 按发生顺序列出批次的错误日志.
func ListBatchErrors(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var q types.ListErrorsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	if err := rule.ValidateStruct(&q); err != nil {
		badRequest(c, err)
		return
	}

	if q.Limit == 0 {
		q.Limit = types.DefaultErrorListLimit
	}

	batchID := c.Param("id")

	logs, err := svcs.Errors.ListForBatch(c.Request.Context(), batchID, middleware.GetIdentity(c), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ListErrorsResponse{BatchID: batchID, Errors: logs})
}
