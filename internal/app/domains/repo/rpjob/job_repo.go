package rpjob

import (
	"context"

	"urbaplan/internal/entity"
	"urbaplan/pkg/infra/db"
)

// JobRepository 可行性任务仓储接口
// 实现在 pkg/infra/db（JobStore）
type JobRepository interface {
	// CreateJob 创建待处理任务
	CreateJob(ctx context.Context, job *entity.FeasibilityJob) error

	// GetJob 根据任务 ID 查询，不存在时返回 db.ErrJobNotFound
	GetJob(ctx context.Context, jobID string) (*entity.FeasibilityJob, error)

	// UpdateResult 更新任务结果（支持成功/失败两种情况）
	// result: 报告 JSON（成功时传入，失败时传 nil）
	// status: 任务状态（DONE 或 FAILED）
	// errorMsg: 错误信息（失败时传入）
	UpdateResult(ctx context.Context, jobID string, result []byte, status, errorMsg string) error
}

var _ JobRepository = (*db.JobStore)(nil)
