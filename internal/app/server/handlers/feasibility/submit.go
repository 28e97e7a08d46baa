package feasibility

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"urbaplan/internal/app/domains/apimodel/request"
	"urbaplan/internal/app/domains/apimodel/response"
	"urbaplan/internal/app/pkg/ginx"
	"urbaplan/internal/entity"
)

// Submit 创建异步可行性任务
// POST /api/v1/feasibility/jobs?wait=10
//
// wait 为 Smart Wait 秒数：在此时间内完成则直接返回结果，否则返回 code=3001 与轮询地址
func (h *FeasibilityHandler) Submit(c *gin.Context) {
	waitSeconds := 0
	if waitStr := c.Query("wait"); waitStr != "" {
		if w, err := strconv.Atoi(waitStr); err == nil && w > 0 {
			waitSeconds = w
		}
	}

	var req request.FeasibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	job, err := h.feasibilityService.Submit(c.Request.Context(), req.ToJobData(), time.Duration(waitSeconds)*time.Second)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if job.Status == entity.JobStatusPending {
		pollURL := fmt.Sprintf("/api/v1/feasibility/jobs/%s", job.ID)
		ginx.Processing(c, job.ID, pollURL)
		return
	}
	ginx.Success(c, response.FromJobEntity(job))
}
