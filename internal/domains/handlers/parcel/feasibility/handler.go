// Package feasibility parcel_feasibility 任务 Handler
package feasibility

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"urbaplan/internal/business"
	"urbaplan/internal/domains/common"
	"urbaplan/internal/domains/common/job"
	"urbaplan/internal/domains/common/response"
	"urbaplan/internal/framework"
	"urbaplan/internal/model"
	"urbaplan/pkg/errorutil"
)

// Handler 地块可行性 Handler
type Handler struct {
	ctx     context.Context
	deps    *common.Deps
	meta    *job.Meta
	jobData model.FeasibilityJobData
}

// NewHandler 创建 Handler，解析业务数据
func NewHandler(ctx context.Context, deps *common.Deps, meta *job.Meta, payload json.RawMessage) (common.HandlerServ, error) {
	var data model.FeasibilityJobData
	if err := job.DecodeData(payload, &data); err != nil {
		return nil, err
	}

	return &Handler{
		ctx:     ctx,
		deps:    deps,
		meta:    meta,
		jobData: data,
	}, nil
}

// GetProcess 处理任务
func (h *Handler) GetProcess() *response.Response {
	result := response.NewJobResult()

	err := framework.NewPreProcessor(
		framework.Step{Name: "validate", Run: h.validate},
		framework.Step{Name: "execute", Run: h.execute},
	).Run(h.ctx)

	resp := &response.Response{}
	resp.WrapResponse(result, h.meta, err)
	return resp
}

// validate 校验必填字段
func (h *Handler) validate(context.Context) error {
	if h.meta.ID == "" {
		return errorutil.NonRetriable("job id is required")
	}
	if strings.TrimSpace(h.jobData.ZoneID) == "" && strings.TrimSpace(h.jobData.GeometryWKT) == "" {
		return errorutil.NonRetriable("zone_id or geometry is required")
	}
	if h.deps == nil || h.deps.Feasibility == nil {
		return fmt.Errorf("feasibility service is not configured")
	}
	return nil
}

// execute 生成报告并发送回调
func (h *Handler) execute(ctx context.Context) error {
	return h.deps.Feasibility.Execute(ctx, &business.FeasibilityInput{
		RequestID: h.meta.RequestID,
		JobID:     h.meta.ID,
		Data:      h.jobData,
	})
}
