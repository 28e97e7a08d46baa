package common

import (
	"context"
	"encoding/json"

	"urbaplan/internal/business"
	"urbaplan/internal/domains/common/job"
	"urbaplan/internal/domains/common/response"
)

// Deps Handler 依赖（由 worker 启动时注入）
type Deps struct {
	Feasibility *business.FeasibilityService
}

// HandlerServProc Handler 构造函数类型
type HandlerServProc func(ctx context.Context, deps *Deps, meta *job.Meta, payload json.RawMessage) (HandlerServ, error)

// HandlerServ Handler 接口
type HandlerServ interface {
	GetProcess() *response.Response
}
