package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"urbaplan/internal/app/consumer"
	"urbaplan/internal/app/domains/services/svcallback"
	"urbaplan/pkg/config"
	"urbaplan/pkg/infra/db"
	"urbaplan/pkg/infra/redis"
	"urbaplan/pkg/lmstfy"
	"urbaplan/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/config.yaml", "配置文件路径")
)

// 独立部署的回调消费者，与 apiserver 内置的消费者逻辑相同
func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// 2. 初始化日志
	appLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	appLogger.Infof(ctx, "[CallbackConsumer] Starting...")

	// 3. 初始化基础设施组件
	gdb, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close(gdb)

	var notifier svcallback.Notifier
	if cfg.Redis.Addr != "" {
		pubsub, err := redis.NewPubSub(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to init redis: %v", err)
		}
		defer pubsub.Close()
		notifier = pubsub
	}

	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		log.Fatalf("Failed to create lmstfy client: %v", err)
	}

	// 4. 初始化 Service 与 Consumer
	callbackService := svcallback.NewCallbackService(db.NewJobStore(gdb), notifier, appLogger)
	callbackConsumer := consumer.NewCallbackConsumer(
		lmstfyClient,
		callbackService,
		&consumer.Config{
			QueueName:    cfg.Lmstfy.CallbackQueue,
			Timeout:      3 * time.Second,
			TTR:          30 * time.Second,
			PollInterval: time.Second,
		},
		appLogger,
	)

	// 5. 启动消费循环（优雅退出）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- callbackConsumer.Start(ctx)
	}()

	select {
	case <-sigChan:
		appLogger.Infof(ctx, "[CallbackConsumer] Received shutdown signal, stopping...")
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Errorf(ctx, "[CallbackConsumer] Stopped with error: %v", err)
		}
	}
}
