package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/coinsniper/internal/bot"
	"github.com/rovshanmuradov/coinsniper/internal/config"
	"github.com/rovshanmuradov/coinsniper/internal/logger"
	"github.com/rovshanmuradov/coinsniper/internal/ui"
	"go.uber.org/zap"
)

const defaultLogFile = "logs/coinsniper.log"

func main() {
	configPath := flag.String("config", "", "Path to an optional YAML/JSON config file")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// the terminal belongs to the dashboard; logs go to the file and ring
	ring := logger.NewRing(500)
	logCfg := logger.DefaultConfig()
	logCfg.Console = false
	logCfg.Debug = cfg.DebugLogging
	logCfg.File = cfg.LogFile
	if logCfg.File == "" {
		logCfg.File = defaultLogFile
	}
	logCfg.Ring = ring
	appLogger, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync(appLogger)

	appLogger.Info("🚀 Starting coinsniper dashboard")

	if err := bot.CheckLicense(rootCtx, cfg, appLogger); err != nil {
		log.Fatalf("License check failed: %v", err)
	}

	runner, err := bot.NewRunner(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	collab, err := bot.DialCollaborators(rootCtx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to connect collaborators: %v", err)
	}

	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	eventsCh, unsubscribe := ui.SubscribeEvents(runner.Bus(), 64)
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, collab)
		// closes the dashboard when the bot stops on its own
		cancel()
	}()

	program := tea.NewProgram(
		ui.NewModel(ui.Options{
			Store:   runner.Store(),
			Journal: runner.Journal(),
			Logs:    ring,
			Events:  eventsCh,
		}),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		appLogger.Error("💥 TUI application failed", zap.Error(err))
	}

	appLogger.Info("🛑 Shutting down")
	cancel()
	if err := <-done; err != nil {
		appLogger.Error("💥 Bot execution error", zap.Error(err))
	}
}
