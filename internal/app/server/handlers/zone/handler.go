package zone

import (
	"github.com/gin-gonic/gin"

	"urbaplan/internal/app/domains/apimodel/request"
	"urbaplan/internal/app/domains/apimodel/response"
	"urbaplan/internal/app/domains/services/svzone"
	"urbaplan/internal/app/pkg/ginx"
)

// ZoneHandler 分区规定与环境约束 HTTP 处理器
type ZoneHandler struct {
	zoneService *svzone.ZoneService
}

// NewZoneHandler 创建处理器实例
func NewZoneHandler(zoneService *svzone.ZoneService) *ZoneHandler {
	return &ZoneHandler{zoneService: zoneService}
}

// Rules 分区合并后的规定
// GET /api/v1/zones/:id/rules
func (h *ZoneHandler) Rules(c *gin.Context) {
	zone, rules, err := h.zoneService.ZoneRules(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ginx.Success(c, response.ZoneRulesResponse{Zone: zone, Rules: rules})
}

// Context 几何的环境约束
// POST /api/v1/context
func (h *ZoneHandler) Context(c *gin.Context) {
	var req request.ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	report, err := h.zoneService.Context(c.Request.Context(), req.ParcelID, req.Geometry, req.Lang)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.ContextResponse{
		ParcelID:   req.ParcelID,
		Lang:       report.Lang,
		Flags:      report.Flags,
		Messages:   report.Messages,
		Details:    report.Details,
		Categories: report.Categories,
	})
}
