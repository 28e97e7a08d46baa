package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"urbaplan/internal/app/domains/services/svcallback"
	"urbaplan/internal/framework"
	"urbaplan/internal/model"
	"urbaplan/pkg/infra/db"
	"urbaplan/pkg/logger"
)

// CallbackConsumer 回调消费者
// 职责：
// 1. 从 lmstfy 队列消费回调消息
// 2. 解析消息并调用 CallbackService 处理
// 3. 确认消息（ACK）
type CallbackConsumer struct {
	source          framework.MessageSource
	callbackService *svcallback.CallbackService
	queueName       string
	logger          logger.Logger

	// 消费配置
	timeout      time.Duration // 拉取消息超时
	ttr          time.Duration // Time-To-Run
	pollInterval time.Duration
}

// Config 消费者配置
type Config struct {
	QueueName    string        // 队列名称
	Timeout      time.Duration // 拉取消息超时
	TTR          time.Duration // Time-To-Run
	PollInterval time.Duration // 出错后的等待间隔
}

// NewCallbackConsumer 创建回调消费者实例
func NewCallbackConsumer(
	source framework.MessageSource,
	callbackService *svcallback.CallbackService,
	config *Config,
	log logger.Logger,
) *CallbackConsumer {
	if log == nil {
		log = logger.NewNop()
	}
	return &CallbackConsumer{
		source:          source,
		callbackService: callbackService,
		queueName:       config.QueueName,
		timeout:         config.Timeout,
		ttr:             config.TTR,
		pollInterval:    config.PollInterval,
		logger:          log,
	}
}

// Start 启动消费循环，ctx 取消后返回 ctx.Err()
func (c *CallbackConsumer) Start(ctx context.Context) error {
	c.logger.Infof(ctx, "[CallbackConsumer] Started: queue=%s, timeout=%v, ttr=%v", c.queueName, c.timeout, c.ttr)

	for {
		select {
		case <-ctx.Done():
			c.logger.Infof(ctx, "[CallbackConsumer] Stopped")
			return ctx.Err()
		default:
		}

		if err := c.consumeOne(ctx); err != nil {
			c.logger.Errorf(ctx, "[CallbackConsumer] Failed to consume message: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.pollInterval):
			}
		}
	}
}

// consumeOne 消费一条消息
func (c *CallbackConsumer) consumeOne(ctx context.Context) error {
	// 1. 从队列拉取消息
	msg, err := c.source.Consume(c.queueName, c.timeout, c.ttr)
	if err != nil {
		return fmt.Errorf("consume message failed: %w", err)
	}

	if msg == nil {
		// 没有消息，继续等待
		return nil
	}

	c.logger.Debugf(ctx, "[CallbackConsumer] Received callback message: job_id=%s", msg.ID)

	// 2. 解析回调消息
	callback, err := parseMessage(msg.Data)
	if err != nil {
		// 解析失败，直接 ACK（避免死循环）
		c.logger.Errorf(ctx, "[CallbackConsumer] Failed to parse message: job_id=%s, error=%v", msg.ID, err)
		_ = c.source.Ack(c.queueName, msg.ID)
		return nil
	}

	// 3. 处理回调
	if err := c.callbackService.HandleCallback(ctx, callback); err != nil {
		if !errors.Is(err, db.ErrJobNotFound) {
			// 处理失败，不 ACK（让 lmstfy TTR 机制重试）
			return fmt.Errorf("handle callback %s failed: %w", callback.JobID, err)
		}
		c.logger.Warnf(ctx, "[CallbackConsumer] Callback for unknown job dropped: job_id=%s", callback.JobID)
	}

	// 4. 确认消息
	if err := c.source.Ack(c.queueName, msg.ID); err != nil {
		return fmt.Errorf("ack message %s failed: %w", msg.ID, err)
	}

	return nil
}

// parseMessage 解析并校验回调消息
func parseMessage(data []byte) (*model.FeasibilityCallback, error) {
	var callback model.FeasibilityCallback
	if err := json.Unmarshal(data, &callback); err != nil {
		return nil, fmt.Errorf("unmarshal callback failed: %w", err)
	}

	// 校验必填字段
	if callback.JobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}
	if callback.Status == "" {
		return nil, fmt.Errorf("status is required")
	}

	return &callback, nil
}
