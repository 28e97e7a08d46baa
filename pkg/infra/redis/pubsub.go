// Package redis Redis 发布/订阅与结果缓存
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// resultChannelPrefix 可行性结果通知频道前缀，后接任务 ID
const resultChannelPrefix = "feasibility:result:"

// ResultChannel 任务结果频道
func ResultChannel(jobID string) string {
	return resultChannelPrefix + jobID
}

// PubSub Redis 发布/订阅客户端
type PubSub struct {
	client *redis.Client
}

// NewPubSub 创建 PubSub 实例
func NewPubSub(addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &PubSub{
		client: client,
	}, nil
}

// NewPubSubWithClient 使用已有连接
func NewPubSubWithClient(client *redis.Client) *PubSub {
	return &PubSub{client: client}
}

// Client 底层连接（与 ResultCache 共用）
func (p *PubSub) Client() *redis.Client {
	return p.client
}

// ResultNotification 任务完成通知
type ResultNotification struct {
	JobID     string `json:"job_id"`
	RequestID string `json:"request_id"`
	Status    string `json:"status"` // DONE/FAILED
	Timestamp int64  `json:"timestamp"`
}

// PublishResult 发布任务完成通知
func (p *PubSub) PublishResult(ctx context.Context, notification *ResultNotification) error {
	// 序列化通知消息
	msgJSON, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	// 发布到 Redis 频道
	if err := p.client.Publish(ctx, ResultChannel(notification.JobID), msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// Publish 向指定频道发布消息
func (p *PubSub) Publish(ctx context.Context, channel, message string) error {
	return p.client.Publish(ctx, channel, message).Err()
}

// Wait 订阅频道并等待第一条消息，超时返回 context.DeadlineExceeded
// 用于 Smart Wait：提交任务后等待 worker 推送结果
func (p *PubSub) Wait(ctx context.Context, channel string, timeout time.Duration) (string, error) {
	sub := p.client.Subscribe(ctx, channel)
	defer sub.Close()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// 确认订阅生效，避免错过紧随其后的发布
	if _, err := sub.Receive(timeoutCtx); err != nil {
		return "", err
	}

	select {
	case msg := <-sub.Channel():
		return msg.Payload, nil
	case <-timeoutCtx.Done():
		return "", timeoutCtx.Err()
	}
}

// Listen 持续订阅频道，直到 ctx 取消
func (p *PubSub) Listen(ctx context.Context, channel string, handle func(ctx context.Context, payload string)) {
	sub := p.client.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			handle(ctx, msg.Payload)
		}
	}
}

// Close 关闭 Redis 连接
func (p *PubSub) Close() error {
	return p.client.Close()
}
