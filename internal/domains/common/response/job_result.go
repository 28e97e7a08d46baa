package response

import (
	"urbaplan/internal/domains/common/job"
	"urbaplan/pkg/errorutil"
)

// 任务结果状态
const (
	JobStatusSuccess = "SUCCESS"
	JobStatusFailed  = "FAILED"
)

// JobResult 任务处理结果（实现 ResultI 接口）
type JobResult struct {
	ID     string           `json:"id"`
	Action string           `json:"action"`
	Status string           `json:"status"`
	Error  *errorutil.Error `json:"error,omitempty"`
}

// NewJobResult 创建任务结果
func NewJobResult() *JobResult {
	return &JobResult{}
}

// Set 实现 ResultI 接口
func (r *JobResult) Set(meta *job.Meta, err error) {
	if meta != nil {
		r.ID = meta.ID
		r.Action = meta.ActionType
	}
	if err != nil {
		r.Status = JobStatusFailed
		r.Error = errorutil.Wrap(err)
	} else {
		r.Status = JobStatusSuccess
	}
}

// GetStatus 实现 ResultI 接口
func (r *JobResult) GetStatus() string {
	return r.Status
}
