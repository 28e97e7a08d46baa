package feasibility

import "urbaplan/internal/app/domains/services/svfeasibility"

// FeasibilityHandler 可行性 HTTP 处理器
type FeasibilityHandler struct {
	feasibilityService *svfeasibility.FeasibilityService
}

// NewFeasibilityHandler 创建可行性处理器实例
func NewFeasibilityHandler(feasibilityService *svfeasibility.FeasibilityService) *FeasibilityHandler {
	return &FeasibilityHandler{
		feasibilityService: feasibilityService,
	}
}
