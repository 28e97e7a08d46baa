package framework

import "time"

// 未配置时的取值
const (
	DefaultConsumeTimeout = 3 * time.Second
	DefaultTTR            = 30 * time.Second
	DefaultErrorBackoff   = time.Second
	DefaultJobTimeout     = 20 * time.Second
)

// SubscriberConfig 可行性任务队列的拉取参数
type SubscriberConfig struct {
	QueueName    string
	Concurrency  int           // 拉取协程数
	Timeout      time.Duration // 单次 Consume 阻塞上限
	TTR          time.Duration // 未 ACK 的任务在此之后重新投递
	Rate         time.Duration // 两次拉取的间隔，0 表示不限速
	ErrorBackoff time.Duration
}

// withDefaults 补齐未配置项，返回副本
func (c SubscriberConfig) withDefaults() *SubscriberConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultConsumeTimeout
	}
	if c.TTR <= 0 {
		c.TTR = DefaultTTR
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = DefaultErrorBackoff
	}
	return &c
}

// ProcessorConfig 报告生成协程池参数
type ProcessorConfig struct {
	Concurrency int
	BufferSize  int           // inputChan 缓冲
	Timeout     time.Duration // 单个任务（计算 + 回调发布）的超时
}

// withDefaults 补齐未配置项，返回副本
func (c ProcessorConfig) withDefaults() *ProcessorConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.BufferSize < 0 {
		c.BufferSize = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultJobTimeout
	}
	return &c
}
