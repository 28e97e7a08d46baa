package label

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"urbaplan/internal/app/domains/apimodel/response"
	"urbaplan/internal/app/domains/services/svlabel"
	"urbaplan/internal/app/pkg/ginx"
	"urbaplan/internal/business/labels"
	"urbaplan/internal/model"
)

// LabelHandler 标签字典 HTTP 处理器
type LabelHandler struct {
	labelService *svlabel.LabelService
}

// NewLabelHandler 创建处理器实例
func NewLabelHandler(labelService *svlabel.LabelService) *LabelHandler {
	return &LabelHandler{labelService: labelService}
}

// Get 查询单个标签
// GET /api/v1/labels/:type/:code?lang=de&long=true
func (h *LabelHandler) Get(c *gin.Context) {
	typ := model.LabelType(c.Param("type"))
	code := c.Param("code")
	lang := c.DefaultQuery("lang", model.LangFR)
	long, _ := strconv.ParseBool(c.Query("long"))

	l := h.labelService.Get(c.Request.Context(), code, typ, lang, long)
	ginx.Success(c, response.LabelResponse{
		Code:     code,
		Type:     string(typ),
		Lang:     lang,
		Text:     l.Text,
		Found:    l.Found,
		Severity: l.Severity,
		Category: l.Category,
	})
}

// Batch 批量查询
// POST /api/v1/labels/batch
func (h *LabelHandler) Batch(c *gin.Context) {
	var req []labels.LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}
	ginx.Success(c, h.labelService.Batch(c.Request.Context(), req))
}

// Refresh 重新加载标签字典并广播
// POST /api/v1/labels/refresh?reset=true
func (h *LabelHandler) Refresh(c *gin.Context) {
	reset, _ := strconv.ParseBool(c.Query("reset"))
	size, loadedAt, broadcasted, err := h.labelService.Refresh(c.Request.Context(), reset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ginx.Success(c, response.LabelRefreshResponse{
		Size:        size,
		LoadedAt:    loadedAt,
		Broadcasted: broadcasted,
	})
}
