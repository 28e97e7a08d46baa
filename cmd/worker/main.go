package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"urbaplan/internal/business"
	"urbaplan/internal/domains/common"
	"urbaplan/internal/engine"
	"urbaplan/internal/worker"
	"urbaplan/pkg/config"
	"urbaplan/pkg/infra/db"
	"urbaplan/pkg/lmstfy"
	"urbaplan/pkg/logger"
	"urbaplan/pkg/metrics"
)

var (
	configPath = flag.String("config", "./config/config.yaml", "配置文件路径")
)

func main() {
	flag.Parse()

	// 1. 初始化日志
	log.Println("========================================")
	log.Println("  URBAPLAN Worker Starting...")
	log.Println("========================================")

	// 2. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	log.Printf("Config loaded: %s, env: %s, log_level: %s\n", cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)

	// 3. 初始化 Logger
	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. 初始化数据库与规则引擎
	gdb, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close(gdb)

	m := metrics.New()
	eng, err := engine.New(ctx, gdb, cfg.Engine, zapLogger, engine.Options{Observer: m, LabelObserver: m})
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	if cfg.Engine.LabelRefreshCron != "" {
		c, err := eng.Labels.StartCron(ctx, cfg.Engine.LabelRefreshCron)
		if err != nil {
			log.Fatalf("Failed to schedule label refresh: %v", err)
		}
		defer c.Stop()
	}

	// 5. 初始化 lmstfy 客户端
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		log.Fatalf("Failed to create lmstfy client: %v", err)
	}

	// 6. 创建 Manager
	deps := &common.Deps{
		Feasibility: business.NewFeasibilityService(eng.Calculator, lmstfyClient, cfg.Lmstfy.CallbackQueue, m, zapLogger),
	}
	mgr, err := worker.NewManagerInstance(cfg, lmstfyClient, deps, m, zapLogger)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// 7. 启动 Manager（goroutine）
	go func() {
		if err := mgr.Start(); err != nil {
			log.Fatalf("Manager start failed: %v", err)
		}
	}()

	log.Println("Worker started. Press Ctrl+C to shutdown.")

	// 8. 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Println("========================================")
	log.Printf("  Received signal: %v\n", sig)
	log.Println("  Shutting down Worker...")
	log.Println("========================================")

	// 9. 优雅关闭 Manager
	mgr.Shutdown()

	fmt.Println("========================================")
	fmt.Println("  Worker exited gracefully")
	fmt.Println("========================================")
}
