package framework

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"urbaplan/pkg/logger"
)

// SubscriberStats 订阅计数快照
type SubscriberStats struct {
	Pulled        int64 // 拉取到的消息数
	Redelivered   int64 // 其中重新投递（Attempts > 1）的消息数
	Forwarded     int64 // 已交给 Processor 的消息数
	Dropped       int64 // 关闭时丢弃（未 ACK，TTR 后重投）的消息数
	ConsumeErrors int64 // 拉取失败次数
}

// Subscriber 从可行性任务队列拉取消息并交给 Processor
// 多个拉取协程共享同一个 inputChan；关闭时未送出的消息不 ACK，由 lmstfy 在 TTR 后重投
type Subscriber struct {
	cfg    *SubscriberConfig
	source MessageSource
	logger Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	pulled        *atomic.Int64
	redelivered   *atomic.Int64
	forwarded     *atomic.Int64
	dropped       *atomic.Int64
	consumeErrors *atomic.Int64
}

// NewSubscriber 创建订阅者
func NewSubscriber(cfg *SubscriberConfig, source MessageSource, log Logger) *Subscriber {
	return &Subscriber{
		cfg:           cfg.withDefaults(),
		source:        source,
		logger:        log,
		pulled:        atomic.NewInt64(0),
		redelivered:   atomic.NewInt64(0),
		forwarded:     atomic.NewInt64(0),
		dropped:       atomic.NewInt64(0),
		consumeErrors: atomic.NewInt64(0),
	}
}

// Start 启动 cfg.Concurrency 个拉取协程，立即返回
func (s *Subscriber) Start(parentCtx context.Context, inputChan chan<- *Message) error {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel

	pullers := s.cfg.Concurrency
	s.logger.Infof(ctx, "[Subscriber] Queue %s: starting %d pullers (timeout=%s ttr=%s)",
		s.cfg.QueueName, pullers, s.cfg.Timeout, s.cfg.TTR)

	for i := 0; i < pullers; i++ {
		s.wg.Add(1)
		go s.pull(logger.WithWorkerID(ctx, i), i, inputChan)
	}
	return nil
}

// Stop 停止拉取新消息
func (s *Subscriber) Stop() {
	s.logger.Infof(context.Background(), "[Subscriber] Queue %s: stop requested", s.cfg.QueueName)
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait 等待所有拉取协程退出
func (s *Subscriber) Wait() {
	s.wg.Wait()
	st := s.Stats()
	s.logger.Infof(context.Background(), "[Subscriber] Queue %s: stopped pulled=%d forwarded=%d dropped=%d errors=%d",
		s.cfg.QueueName, st.Pulled, st.Forwarded, st.Dropped, st.ConsumeErrors)
}

// Stats 当前计数
func (s *Subscriber) Stats() SubscriberStats {
	return SubscriberStats{
		Pulled:        s.pulled.Load(),
		Redelivered:   s.redelivered.Load(),
		Forwarded:     s.forwarded.Load(),
		Dropped:       s.dropped.Load(),
		ConsumeErrors: s.consumeErrors.Load(),
	}
}

func (s *Subscriber) pull(ctx context.Context, id int, inputChan chan<- *Message) {
	defer s.wg.Done()
	defer s.logger.Debugf(ctx, "[Subscriber-%d] exited", id)

	for ctx.Err() == nil {
		// 1. 拉取；失败时退避后重试，不退出
		msg, err := s.source.Consume(s.cfg.QueueName, s.cfg.Timeout, s.cfg.TTR)
		if err != nil {
			s.consumeErrors.Inc()
			s.logger.Warnf(ctx, "[Subscriber-%d] Consume %s failed: %v", id, s.cfg.QueueName, err)
			if !pause(ctx, s.cfg.ErrorBackoff) {
				return
			}
			continue
		}
		if msg == nil {
			continue
		}

		s.pulled.Inc()
		if msg.Attempts > 1 {
			s.redelivered.Inc()
			s.logger.Infof(ctx, "[Subscriber-%d] Job %s redelivered (attempt %d)", id, msg.ID, msg.Attempts)
		}

		// 2. 交给 Processor；关闭期间放弃并等待重投
		select {
		case inputChan <- msg:
			s.forwarded.Inc()
		case <-ctx.Done():
			s.dropped.Inc()
			s.logger.Warnf(ctx, "[Subscriber-%d] Job %s left for redelivery on shutdown", id, msg.ID)
			return
		}

		// 3. 拉取间隔
		if !pause(ctx, s.cfg.Rate) {
			return
		}
	}
}

// pause 等待 d；ctx 结束时返回 false
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
