package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/config"
	logpkg "github.com/nishantkapps/feedback/internal/logger"
	"github.com/nishantkapps/feedback/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化Logger
	logger, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "feedback-bridge")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting feedback-bridge service",
		zap.String("version", "1.0.0"),
		zap.Bool("fusion_enabled", cfg.Bridge.FusionEnabled),
		zap.String("output_file", cfg.Publisher.OutputFile),
		zap.Bool("consumer_enabled", cfg.Consumer.Enabled),
		zap.Bool("nachi_enabled", cfg.Nachi.Enabled),
	)

	// 创建服务
	bridgeService, err := service.NewBridgeService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create bridge service", zap.Error(err))
	}

	// 启动服务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bridgeService.Start(ctx); err != nil {
		logger.Fatal("Failed to start bridge service", zap.Error(err))
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 优雅关闭
	cancel()
	if err := bridgeService.Stop(ctx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Service stopped")
}
