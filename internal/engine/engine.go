// Package engine 组装规则引擎（apiserver / worker / parcelctl 共用）
package engine

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"urbaplan/internal/business/contextlayer"
	"urbaplan/internal/business/feasibility"
	"urbaplan/internal/business/labels"
	"urbaplan/internal/business/rules"
	"urbaplan/pkg/config"
	"urbaplan/pkg/infra/db"
	"urbaplan/pkg/logger"
)

// Engine 规则引擎组件
type Engine struct {
	RuleStore  *db.RuleStore
	LayerStore *db.LayerStore
	LabelStore *db.LabelStore

	Rules      *rules.Resolver
	Context    *contextlayer.Resolver
	Labels     *labels.Dictionary
	Calculator *feasibility.Calculator
}

// Options 可选项
type Options struct {
	Observer      contextlayer.Observer  // 图层查询指标，可为空
	LabelObserver labels.RefreshObserver // 标签刷新指标，可为空
	Now           func() time.Time
}

// New 基于数据库组装引擎并加载标签字典
// 标签加载失败不阻止启动，字典保持为空并标记过期，下次刷新时重试
func New(ctx context.Context, gdb *gorm.DB, cfg config.EngineConfig, log logger.Logger, opts Options) (*Engine, error) {
	if gdb == nil {
		return nil, fmt.Errorf("database is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	e := &Engine{
		RuleStore:  db.NewRuleStore(gdb),
		LayerStore: db.NewLayerStore(gdb),
		LabelStore: db.NewLabelStore(gdb),
	}

	e.Rules = rules.NewResolver(e.RuleStore, e.RuleStore, log)
	e.Context = contextlayer.NewResolver(e.LayerStore, cfg.LayerTimeout, log, opts.Observer)
	e.Labels = labels.NewDictionary(e.LabelStore, log)
	if opts.LabelObserver != nil {
		e.Labels.SetObserver(opts.LabelObserver)
	}
	if err := e.Labels.Refresh(ctx); err != nil {
		log.Warnf(ctx, "[Engine] Initial label load failed: %v", err)
	}

	e.Calculator = feasibility.NewCalculator(feasibility.Deps{
		Rules:       e.Rules,
		Context:     e.Context,
		Labels:      e.Labels,
		Logger:      log,
		MaxMessages: cfg.MaxMessages,
		DefaultLang: cfg.DefaultLang,
		Now:         opts.Now,
	})

	log.Infof(ctx, "[Engine] Ready: %d labels, layer timeout %v", e.Labels.Size(), cfg.LayerTimeout)
	return e, nil
}
