package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/rovshanmuradov/coinsniper/internal/bot"
	"github.com/rovshanmuradov/coinsniper/internal/config"
	"github.com/rovshanmuradov/coinsniper/internal/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to an optional YAML/JSON config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Debug = cfg.DebugLogging
	logCfg.File = cfg.LogFile
	appLogger, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync(appLogger)

	appLogger.Info("🚀 Starting coinsniper",
		zap.Strings("handles", cfg.Handles),
		zap.String("tiers", cfg.TakeProfitTiers))

	if err := bot.CheckLicense(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal("💥 License check failed", zap.Error(err))
	}

	runner, err := bot.NewRunner(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("💥 Failed to initialize bot", zap.Error(err))
	}

	collab, err := bot.DialCollaborators(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("💥 Failed to connect collaborators", zap.Error(err))
	}

	if err := runner.Run(ctx, collab); err != nil {
		appLogger.Fatal("💥 Bot execution error", zap.Error(err))
	}
	appLogger.Info("👋 Bot stopped")
}
