package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"urbaplan/internal/entity"
	"urbaplan/pkg/errorutil"
)

// ErrJobNotFound 任务不存在
var ErrJobNotFound = errors.New("job not found")

// JobStore 可行性任务数据访问对象
type JobStore struct {
	db *gorm.DB
}

// NewJobStore 创建 JobStore
func NewJobStore(db *gorm.DB) *JobStore {
	return &JobStore{db: db}
}

// CreateJob 创建待处理任务
func (s *JobStore) CreateJob(ctx context.Context, job *entity.FeasibilityJob) error {
	if job.Status == "" {
		job.Status = entity.JobStatusPending
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return errorutil.RetriableWithCause("failed to create job", err)
	}
	return nil
}

// UpdateResult 更新任务结果
// 参数：
//   - jobID: 任务 ID
//   - result: 报告 JSON（失败时为空）
//   - status: 任务状态（DONE/FAILED）
//   - errorMsg: 错误消息（失败时）
func (s *JobStore) UpdateResult(ctx context.Context, jobID string, result []byte, status, errorMsg string) error {
	// 构造更新字段
	updates := map[string]interface{}{
		"status": status,
	}
	if len(result) > 0 {
		updates["result"] = result
	}
	if errorMsg != "" {
		updates["error_message"] = errorMsg
	}

	// 执行更新
	dbResult := s.db.WithContext(ctx).
		Model(&entity.FeasibilityJob{}).
		Where("id = ?", jobID).
		Updates(updates)

	if dbResult.Error != nil {
		return errorutil.RetriableWithCause("failed to update job", dbResult.Error)
	}

	if dbResult.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	return nil
}

// GetJob 根据任务 ID 获取任务
func (s *JobStore) GetJob(ctx context.Context, jobID string) (*entity.FeasibilityJob, error) {
	var job entity.FeasibilityJob
	err := s.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, errorutil.RetriableWithCause("failed to get job", err)
	}
	return &job, nil
}
