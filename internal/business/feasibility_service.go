// Package business worker 侧业务编排
package business

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"urbaplan/internal/business/feasibility"
	"urbaplan/internal/model"
	"urbaplan/pkg/errorutil"
	"urbaplan/pkg/logger"
)

// CallbackPublisher 回调队列发布（lmstfy.Client 实现）
type CallbackPublisher interface {
	Publish(queue string, data []byte, ttl, delay time.Duration) (string, error)
}

// ReportObserver 报告指标回调
type ReportObserver interface {
	ReportGenerated(zoneStatus string)
}

// FeasibilityInput 任务输入（所有数据从 payload 传入）
type FeasibilityInput struct {
	RequestID string
	JobID     string
	Data      model.FeasibilityJobData
}

// FeasibilityService 可行性任务服务
// 职责：生成报告 → 发送回调到 callback 队列
type FeasibilityService struct {
	calculator    *feasibility.Calculator
	publisher     CallbackPublisher
	callbackQueue string
	observer      ReportObserver
	logger        logger.Logger
	now           func() time.Time
}

// NewFeasibilityService 创建服务实例，observer 可为空
func NewFeasibilityService(
	calculator *feasibility.Calculator,
	publisher CallbackPublisher,
	callbackQueue string,
	observer ReportObserver,
	log logger.Logger,
) *FeasibilityService {
	if log == nil {
		log = logger.NewNop()
	}
	return &FeasibilityService{
		calculator:    calculator,
		publisher:     publisher,
		callbackQueue: callbackQueue,
		observer:      observer,
		logger:        log,
		now:           time.Now,
	}
}

// Execute 生成报告并发送回调
// 可重试错误（数据源故障、回调发送失败）直接返回，不发送回调，由队列重新投递；
// 其余失败发送 FAILED 回调后返回原错误
func (s *FeasibilityService) Execute(ctx context.Context, input *FeasibilityInput) error {
	// 1. 生成报告
	result, err := s.calculator.GenerateFeasibilityTable(ctx, feasibility.RequestFromJobData(input.Data))
	if err != nil && errorutil.IsRetryable(err) {
		s.logger.Warnf(ctx, "[FeasibilityService] Retryable failure for job %s: %v", input.JobID, err)
		return err
	}

	// 2. 构造回调消息
	callback := model.FeasibilityCallback{
		RequestID:   input.RequestID,
		JobID:       input.JobID,
		ProcessedAt: s.now().Unix(),
	}

	if err != nil {
		callback.Status = model.CallbackStatusFailed
		callback.Error = err.Error()
	} else {
		resultJSON, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal result: %w", marshalErr)
		}
		callback.Status = model.CallbackStatusSuccess
		callback.Result = resultJSON
		if s.observer != nil {
			s.observer.ReportGenerated(string(result.ZoneStatus))
		}
	}

	// 3. 序列化回调消息为 JSON
	callbackJSON, marshalErr := json.Marshal(callback)
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal callback: %w", marshalErr)
	}

	// 4. 发送回调到 callback 队列
	if _, pubErr := s.publisher.Publish(s.callbackQueue, callbackJSON, 0, 0); pubErr != nil {
		return errorutil.RetriableWithCause("failed to publish callback", pubErr)
	}

	s.logger.Infof(ctx, "[FeasibilityService] Callback sent for job %s: status=%s", input.JobID, callback.Status)
	return err
}
