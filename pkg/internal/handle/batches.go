package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/types"
	"github.com/yeisme/ingestvault/pkg/middleware"
)

// StartBatch 为调用方站点开启新批次，已有进行中批次时返回 409.
func StartBatch(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	b, err := svcs.Batches.Start(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.BatchResponse{Batch: b})
}

// GetBatch 查询批次，站点只能读自己的批次.
func GetBatch(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	b, err := svcs.Batches.GetForActor(c.Request.Context(), c.Param("id"), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.BatchResponse{Batch: b})
}

// CompleteBatch 正常结束批次.
func CompleteBatch(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	respondBatch(c, func(id string, actor model.Identity) (*model.Batch, error) {
		return svcs.Batches.Complete(c.Request.Context(), id, actor)
	})
}

// FailBatch 客户端上报批次失败，可附带原因.
func FailBatch(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var req types.FailBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	respondBatch(c, func(id string, actor model.Identity) (*model.Batch, error) {
		return svcs.Batches.Fail(c.Request.Context(), id, actor, req.Reason)
	})
}

// CancelBatch 取消批次；进行中的上传不受影响，之后的上传被拒绝.
func CancelBatch(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	respondBatch(c, func(id string, actor model.Identity) (*model.Batch, error) {
		return svcs.Batches.Cancel(c.Request.Context(), id, actor)
	})
}

func respondBatch(c *gin.Context, fn func(id string, actor model.Identity) (*model.Batch, error)) {
	b, err := fn(c.Param("id"), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.BatchResponse{Batch: b})
}
