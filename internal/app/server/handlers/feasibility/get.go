package feasibility

import (
	"errors"

	"github.com/gin-gonic/gin"

	"urbaplan/internal/app/domains/apimodel/response"
	"urbaplan/internal/app/pkg/ginx"
	"urbaplan/pkg/infra/db"
)

// Get 查询异步任务
// GET /api/v1/feasibility/jobs/:id
//
// 创建任务返回 code=3001 时，通过此接口轮询结果
func (h *FeasibilityHandler) Get(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		ginx.BadRequest(c, "job id required")
		return
	}

	job, err := h.feasibilityService.GetJob(c.Request.Context(), jobID)
	if errors.Is(err, db.ErrJobNotFound) {
		ginx.NotFound(c, "job not found")
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.FromJobEntity(job))
}
