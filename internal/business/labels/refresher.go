package labels

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// RefreshChannel Redis 广播频道，收到消息的实例各自刷新本地快照
const RefreshChannel = "labels:refresh"

// ClearMessage 广播该消息时各实例清空快照，下次读取时重新加载
const ClearMessage = "clear"

// StartCron 按 cron 表达式（含秒）定时刷新，返回的 Cron 由调用方 Stop
func (d *Dictionary) StartCron(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(spec, func() {
		if err := d.Refresh(ctx); err != nil {
			d.logger.Warnf(ctx, "[Labels] Scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid label refresh schedule %q: %w", spec, err)
	}

	c.Start()
	d.logger.Infof(ctx, "[Labels] Scheduled refresh: %s", spec)
	return c, nil
}

// HandleRefreshMessage 广播消息回调
func (d *Dictionary) HandleRefreshMessage(ctx context.Context, payload string) {
	d.logger.Infof(ctx, "[Labels] Refresh broadcast received: %s", payload)
	if payload == ClearMessage {
		d.Clear()
		return
	}
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warnf(ctx, "[Labels] Broadcast refresh failed: %v", err)
	}
}
