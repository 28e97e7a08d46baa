package feasibility

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"urbaplan/internal/app/domains/apimodel/request"
	"urbaplan/internal/app/pkg/ginx"
)

// Evaluate 同步生成可行性报告
// POST /api/v1/feasibility?format=markdown
func (h *FeasibilityHandler) Evaluate(c *gin.Context) {
	var req request.FeasibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	markdown := c.Query("format") == "markdown"
	report, err := h.feasibilityService.Evaluate(c.Request.Context(), req.ToJobData(), markdown)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if report.Cached {
		c.Header("X-Cache", "HIT")
	}
	if markdown {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown))
		return
	}
	ginx.Success(c, report.Result)
}
