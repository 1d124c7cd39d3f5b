// Package bot wires the ingestion, monitoring and reconciliation loops
// together and executes trade commands through the chat gateway.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rovshanmuradov/coinsniper/internal/chat"
	"github.com/rovshanmuradov/coinsniper/internal/config"
	"github.com/rovshanmuradov/coinsniper/internal/events"
	"github.com/rovshanmuradov/coinsniper/internal/feed"
	"github.com/rovshanmuradov/coinsniper/internal/history"
	"github.com/rovshanmuradov/coinsniper/internal/ingest"
	"github.com/rovshanmuradov/coinsniper/internal/metrics"
	"github.com/rovshanmuradov/coinsniper/internal/monitor"
	"github.com/rovshanmuradov/coinsniper/internal/position"
	"github.com/rovshanmuradov/coinsniper/internal/price"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const journalSize = 100

// Collaborators are the outward-facing services the loops depend on.
type Collaborators struct {
	Feed   feed.Reader
	Prices price.Lookup
	Chat   chat.Gateway
}

// DialCollaborators builds the production collaborators from cfg. The chat
// bridge is connected before returning.
func DialCollaborators(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Collaborators, error) {
	prices, err := price.NewHelius(cfg.HeliusRPCURL, cfg.HeliusAPIKey, cfg.PriceTimeout(), logger)
	if err != nil {
		return Collaborators{}, err
	}

	gateway, err := chat.DialBridge(ctx, chat.BridgeConfig{
		URL:   cfg.ChatBridgeURL,
		Token: cfg.ChatBridgeToken,
		Peer:  cfg.GMGNBot,
	}, logger)
	if err != nil {
		_ = prices.Close()
		return Collaborators{}, err
	}

	return Collaborators{
		Feed:   feed.NewTweetScout(cfg.TweetScoutURL, cfg.TweetScoutAPIKey, logger),
		Prices: prices,
		Chat:   gateway,
	}, nil
}

// Runner owns the shared state and runs the three activities.
type Runner struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *position.Store
	seen     *position.SeenSet
	bus      *events.Bus
	journal  *history.Journal
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	shutdown *ShutdownHandler
}

func NewRunner(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	seen, err := position.NewSeenSet(cfg.SeenCapacity)
	if err != nil {
		return nil, err
	}

	journal, err := history.NewJournal(cfg.TradeLogDir, journalSize, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := events.NewBus(logger, 0)
	journal.Attach(bus)

	shutdown := NewShutdownHandler(logger, 0)
	shutdown.Add("journal", journal)
	shutdown.Add("event_bus", bus)

	return &Runner{
		cfg:      cfg,
		logger:   logger,
		store:    position.NewStore(cfg.ClosedRetention),
		seen:     seen,
		bus:      bus,
		journal:  journal,
		registry: registry,
		metrics:  metrics.New(registry),
		shutdown: shutdown,
	}, nil
}

func (r *Runner) Store() *position.Store    { return r.store }
func (r *Runner) Journal() *history.Journal { return r.journal }
func (r *Runner) Bus() *events.Bus          { return r.bus }

// Run starts ingestion, monitoring and reconciliation and blocks until ctx
// is cancelled or one of them fails. Every collaborator and the journal
// are closed before Run returns; a Runner runs once.
func (r *Runner) Run(ctx context.Context, c Collaborators) error {
	r.shutdown.Add("chat", c.Chat)
	if closer, ok := c.Prices.(io.Closer); ok {
		r.shutdown.Add("prices", closer)
	}

	trader := NewTrader(TraderConfig{
		Sender:        c.Chat,
		Peer:          r.cfg.GMGNBot,
		BuyAmount:     r.cfg.BuyAmountSOL,
		Store:         r.store,
		Prices:        c.Prices,
		LookupTimeout: r.cfg.PriceTimeout(),
		Logger:        r.logger,
		Bus:           r.bus,
		Metrics:       r.metrics,
	})

	controller := ingest.New(ingest.Config{
		Feed:      c.Feed,
		Buyer:     trader,
		Seen:      r.seen,
		Handles:   r.cfg.Handles,
		PostCount: r.cfg.TweetCount,
		Interval:  r.cfg.TweetPollInterval(),
		Logger:    r.logger,
		Metrics:   r.metrics,
	})

	mon := monitor.New(monitor.Config{
		Store:         r.store,
		Prices:        c.Prices,
		Seller:        trader,
		Rules:         r.cfg.Rules(),
		Interval:      r.cfg.PricePollInterval(),
		LookupTimeout: r.cfg.PriceTimeout(),
		Logger:        r.logger,
		Bus:           r.bus,
		Metrics:       r.metrics,
	})

	reconciler := NewReconciler(r.store, r.logger, r.bus, r.metrics)

	r.logger.Info("🚀 Starting bot",
		zap.Int("handles", len(r.cfg.Handles)),
		zap.String("buy_amount", r.cfg.BuyAmountSOL),
		zap.String("peer", r.cfg.GMGNBot))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return controller.Run(gctx) })
	g.Go(func() error { return mon.Run(gctx) })
	g.Go(func() error { return reconciler.Run(gctx, c.Chat.Messages()) })
	if r.cfg.MetricsAddr != "" {
		g.Go(func() error { return metrics.Serve(gctx, r.cfg.MetricsAddr, r.registry, r.logger) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		r.logger.Error("Bot stopped with error", zap.Error(err))
	}

	if shutdownErr := r.shutdown.Shutdown(); shutdownErr != nil && err == nil {
		err = fmt.Errorf("shutdown: %w", shutdownErr)
	}

	stats := r.journal.Stats()
	r.logger.Info("📊 Session summary",
		zap.Int("buys", stats.Buys),
		zap.Int("sells", stats.Sells),
		zap.Int("closed", stats.Closed))
	return err
}
