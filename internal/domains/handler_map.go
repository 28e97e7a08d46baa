package domains

import (
	"urbaplan/internal/domains/common"
	"urbaplan/internal/domains/handlers/parcel/feasibility"
	"urbaplan/internal/model"
)

// HandlerMap 路由表（ActionType → Handler 映射）
var HandlerMap = map[string]common.HandlerServProc{
	model.ActionParcelFeasibility: feasibility.NewHandler,
}
