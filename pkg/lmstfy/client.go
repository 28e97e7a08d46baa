// Package lmstfy lmstfy 队列客户端
package lmstfy

import (
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"

	"urbaplan/internal/framework"
)

// defaultTries 发布任务的最大投递次数
const defaultTries = 3

// Client lmstfy 客户端，实现 framework.MessageSource 与任务发布
type Client struct {
	cli       *client.LmstfyClient
	namespace string
}

// NewClient 创建 Lmstfy 客户端
func NewClient(host string, port int, namespace string, token string) (*Client, error) {
	if host == "" {
		return nil, fmt.Errorf("lmstfy host is required")
	}
	cli := client.NewLmstfyClient(host, port, namespace, token)
	return &Client{
		cli:       cli,
		namespace: namespace,
	}, nil
}

// Consume 阻塞拉取一条任务；超时未拉到时返回 (nil, nil)
func (c *Client) Consume(queue string, timeout time.Duration, ttr time.Duration) (*framework.Message, error) {
	job, err := c.cli.Consume(queue, seconds(ttr), seconds(timeout))
	if err != nil {
		return nil, fmt.Errorf("lmstfy consume %s/%s: %w", c.namespace, queue, err)
	}
	if job == nil {
		return nil, nil
	}
	return &framework.Message{
		ID:    job.ID,
		Queue: job.Queue,
		Data:  job.Data,
		Extra: map[string]interface{}{"namespace": c.namespace},
	}, nil
}

// Ack 确认消息（实现 MessageSource 接口）
func (c *Client) Ack(queue string, jobID string) error {
	if err := c.cli.Ack(queue, jobID); err != nil {
		return fmt.Errorf("lmstfy ack %s/%s job %s: %w", c.namespace, queue, jobID, err)
	}
	return nil
}

// Publish 发布消息，返回队列分配的任务 ID
// ttl=0 表示永不过期，delay=0 表示立即可用
func (c *Client) Publish(queue string, data []byte, ttl, delay time.Duration) (string, error) {
	jobID, err := c.cli.Publish(queue, data, seconds(ttl), defaultTries, seconds(delay))
	if err != nil {
		return "", fmt.Errorf("lmstfy publish %s/%s: %w", c.namespace, queue, err)
	}
	return jobID, nil
}

// seconds lmstfy 以整秒计时，不足一秒向上取整
func seconds(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32((d + time.Second - 1) / time.Second)
}

var _ framework.MessageSource = (*Client)(nil)
