package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"urbaplan/internal/app/consumer"
	"urbaplan/internal/app/domains/modules/mdjob"
	"urbaplan/internal/app/domains/services/svcallback"
	"urbaplan/internal/app/domains/services/svfeasibility"
	"urbaplan/internal/app/domains/services/svlabel"
	"urbaplan/internal/app/domains/services/svzone"
	"urbaplan/internal/app/server/handlers/feasibility"
	"urbaplan/internal/app/server/handlers/label"
	"urbaplan/internal/app/server/handlers/zone"
	"urbaplan/internal/app/server/routers"
	"urbaplan/internal/business/labels"
	"urbaplan/internal/engine"
	"urbaplan/pkg/config"
	"urbaplan/pkg/infra/db"
	"urbaplan/pkg/infra/redis"
	"urbaplan/pkg/lmstfy"
	"urbaplan/pkg/logger"
	"urbaplan/pkg/metrics"
)

// App apiserver 组件
type App struct {
	Engine           *gin.Engine
	CallbackConsumer *consumer.CallbackConsumer
	Logger           logger.Logger
}

// InitializeApp 组装 apiserver：数据库 → 引擎 → Redis / Lmstfy → 服务 → 路由
// ctx 控制后台任务（标签定时刷新、刷新广播订阅）的生命周期
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// 1. 日志
	log, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	closers = append(closers, func() { _ = log.Sync() })

	// 2. 数据库与规则引擎
	gdb, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = db.Close(gdb) })

	m := metrics.New()
	eng, err := engine.New(ctx, gdb, cfg.Engine, log, engine.Options{Observer: m, LabelObserver: m})
	if err != nil {
		return fail(err)
	}
	if cfg.Engine.LabelRefreshCron != "" {
		c, err := eng.Labels.StartCron(ctx, cfg.Engine.LabelRefreshCron)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { c.Stop() })
	}

	// 3. Redis（可选：结果缓存、Smart Wait、标签刷新广播）
	var (
		pubsub *redis.PubSub
		cache  *redis.ResultCache
	)
	if cfg.Redis.Addr != "" {
		pubsub, err = redis.NewPubSub(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = pubsub.Close() })
		cache = redis.NewResultCache(pubsub.Client(), cfg.Redis.ResultTTL)
		go pubsub.Listen(ctx, labels.RefreshChannel, eng.Labels.HandleRefreshMessage)
	} else {
		log.Warnf(ctx, "[App] Redis not configured: cache, smart wait and label broadcast disabled")
	}

	// 4. Lmstfy
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return fail(err)
	}

	// 5. 服务与路由
	router, callbackService := buildRouter(cfg, gdb, eng, lmstfyClient, pubsub, cache, m, log)

	callbackConsumer := consumer.NewCallbackConsumer(
		lmstfyClient,
		callbackService,
		&consumer.Config{
			QueueName:    cfg.Lmstfy.CallbackQueue,
			Timeout:      3 * time.Second,
			TTR:          30 * time.Second,
			PollInterval: time.Second,
		},
		log,
	)

	return &App{
		Engine:           router,
		CallbackConsumer: callbackConsumer,
		Logger:           log,
	}, cleanup, nil
}

func buildRouter(
	cfg *config.Config,
	gdb *gorm.DB,
	eng *engine.Engine,
	lmstfyClient *lmstfy.Client,
	pubsub *redis.PubSub,
	cache *redis.ResultCache,
	m *metrics.Metrics,
	log logger.Logger,
) (*gin.Engine, *svcallback.CallbackService) {
	jobs := db.NewJobStore(gdb)

	// 接口变量不能持有 nil 指针
	var (
		waiter      mdjob.Waiter
		notifier    svcallback.Notifier
		broadcaster svlabel.Broadcaster
	)
	if pubsub != nil {
		waiter, notifier, broadcaster = pubsub, pubsub, pubsub
	}

	feasibilityService := svfeasibility.NewFeasibilityService(
		eng.Calculator,
		cache,
		jobs,
		mdjob.NewJobModule(lmstfyClient, waiter, cfg.Lmstfy.Queue),
		m,
		cfg.Server.MaxWait,
		log,
	)
	zoneService := svzone.NewZoneService(eng.Rules, eng.Context, eng.Labels, cfg.Engine.MaxMessages, cfg.Engine.DefaultLang, log)
	labelService := svlabel.NewLabelService(eng.Labels, broadcaster, log)

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routers.SetupRoutes(routers.Options{
		Logger:          log,
		Observer:        m,
		Metrics:         m.Handler(),
		LabelsAdmin:     cfg.Server.LabelsAdmin,
		ServiceName:     cfg.App.Name,
		FeasibilityHTTP: feasibility.NewFeasibilityHandler(feasibilityService),
		ZoneHTTP:        zone.NewZoneHandler(zoneService),
		LabelHTTP:       label.NewLabelHandler(labelService),
	})

	return router, svcallback.NewCallbackService(jobs, notifier, log)
}
