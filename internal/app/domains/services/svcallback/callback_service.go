package svcallback

import (
	"context"
	"fmt"
	"time"

	"urbaplan/internal/app/domains/repo/rpjob"
	"urbaplan/internal/entity"
	"urbaplan/internal/model"
	"urbaplan/pkg/infra/redis"
	"urbaplan/pkg/logger"
)

// Notifier 结果通知（redis.PubSub 实现）
type Notifier interface {
	PublishResult(ctx context.Context, notification *redis.ResultNotification) error
}

// CallbackService 回调处理服务
// 职责：
// 1. 处理 worker 发送的可行性回调
// 2. 更新 DB 任务状态
// 3. 发送 Redis PubSub 通知（Smart Wait）
type CallbackService struct {
	jobRepo  rpjob.JobRepository
	notifier Notifier
	logger   logger.Logger
}

// NewCallbackService 创建回调服务实例，notifier 可为空
func NewCallbackService(
	jobRepo rpjob.JobRepository,
	notifier Notifier,
	log logger.Logger,
) *CallbackService {
	if log == nil {
		log = logger.NewNop()
	}
	return &CallbackService{
		jobRepo:  jobRepo,
		notifier: notifier,
		logger:   log,
	}
}

// HandleCallback 处理可行性回调
// 返回 error 表示处理失败（需要重试）
func (s *CallbackService) HandleCallback(ctx context.Context, callback *model.FeasibilityCallback) error {
	ctx = logger.WithTraceID(ctx, callback.RequestID)
	s.logger.Infof(ctx, "[CallbackService] Processing callback: job_id=%s, status=%s", callback.JobID, callback.Status)

	// 1. 根据回调状态更新 DB
	status, err := s.updateJobStatus(ctx, callback)
	if err != nil {
		s.logger.Errorf(ctx, "[CallbackService] Update job status failed: job_id=%s, error=%v", callback.JobID, err)
		return fmt.Errorf("update job status failed: %w", err)
	}

	// 2. 发送 Redis PubSub 通知（用于 Smart Wait）
	if s.notifier != nil {
		notification := &redis.ResultNotification{
			JobID:     callback.JobID,
			RequestID: callback.RequestID,
			Status:    status,
			Timestamp: time.Now().Unix(),
		}
		if err := s.notifier.PublishResult(ctx, notification); err != nil {
			// DB 已更新成功，通知失败只记录日志
			s.logger.Warnf(ctx, "[CallbackService] Publish notification failed: job_id=%s, error=%v", callback.JobID, err)
		}
	}

	s.logger.Infof(ctx, "[CallbackService] Callback processed: job_id=%s", callback.JobID)
	return nil
}

// updateJobStatus 根据回调状态更新任务，返回写入的任务状态
func (s *CallbackService) updateJobStatus(ctx context.Context, callback *model.FeasibilityCallback) (string, error) {
	if callback.Status == model.CallbackStatusSuccess {
		return entity.JobStatusDone, s.jobRepo.UpdateResult(ctx, callback.JobID, callback.Result, entity.JobStatusDone, "")
	}
	return entity.JobStatusFailed, s.jobRepo.UpdateResult(ctx, callback.JobID, nil, entity.JobStatusFailed, callback.Error)
}
