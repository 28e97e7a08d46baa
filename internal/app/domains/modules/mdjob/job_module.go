package mdjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"urbaplan/internal/entity"
	"urbaplan/internal/model"
	"urbaplan/pkg/infra/redis"
)

// ErrWaitUnavailable 未配置 Redis，无法 Smart Wait
var ErrWaitUnavailable = errors.New("result notification is not configured")

// Publisher 任务队列发布（lmstfy.Client 实现）
type Publisher interface {
	Publish(queue string, data []byte, ttl, delay time.Duration) (string, error)
}

// Waiter 结果通知订阅（redis.PubSub 实现）
type Waiter interface {
	Wait(ctx context.Context, channel string, timeout time.Duration) (string, error)
}

// JobModule 可行性任务模块
// 职责：
// 1. 组装 Lmstfy 和 Redis 客户端
// 2. 包含任务相关的业务约定（消息格式构造、频道命名规则）
type JobModule struct {
	publisher Publisher
	waiter    Waiter
	queueName string
}

// NewJobModule 创建任务模块实例，waiter 可为空（不支持 Smart Wait）
func NewJobModule(publisher Publisher, waiter Waiter, queueName string) *JobModule {
	return &JobModule{
		publisher: publisher,
		waiter:    waiter,
		queueName: queueName,
	}
}

// PublishFeasibilityJob 发布可行性任务到队列
// 消息携带完整的请求数据，worker 不再回查 apiserver
func (m *JobModule) PublishFeasibilityJob(ctx context.Context, job *entity.FeasibilityJob, data model.FeasibilityJobData) error {
	message := model.FeasibilityJob{
		Payload: model.FeasibilityJobPayload{
			Data: model.FeasibilityJobEnvelope{
				RequestID:  job.RequestID,
				OrgID:      "0",
				ActionType: model.ActionParcelFeasibility,
				ID:         job.ID,
				Data:       data,
			},
		},
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal feasibility job failed: %w", err)
	}

	if _, err := m.publisher.Publish(m.queueName, body, 0, 0); err != nil {
		return err
	}
	return nil
}

// WaitForResult 等待任务完成通知（Smart Wait）
// 频道约定：feasibility:result:{jobID}
func (m *JobModule) WaitForResult(ctx context.Context, jobID string, timeout time.Duration) (*redis.ResultNotification, error) {
	if m.waiter == nil {
		return nil, ErrWaitUnavailable
	}

	payload, err := m.waiter.Wait(ctx, redis.ResultChannel(jobID), timeout)
	if err != nil {
		return nil, err
	}

	var notification redis.ResultNotification
	if err := json.Unmarshal([]byte(payload), &notification); err != nil {
		return nil, fmt.Errorf("unmarshal result notification failed: %w", err)
	}

	return &notification, nil
}
