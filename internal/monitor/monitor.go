// Package monitor re-prices open positions on a fixed interval and applies
// exit decisions.
package monitor

import (
	"context"
	"time"

	"github.com/rovshanmuradov/coinsniper/internal/events"
	"github.com/rovshanmuradov/coinsniper/internal/metrics"
	"github.com/rovshanmuradov/coinsniper/internal/position"
	"github.com/rovshanmuradov/coinsniper/internal/price"
	"github.com/rovshanmuradov/coinsniper/internal/strategy"
	"go.uber.org/zap"
)

const defaultLookupTimeout = 10 * time.Second

// Seller executes an exit decision for a position.
type Seller interface {
	Sell(ctx context.Context, p position.Position, d strategy.Decision, price float64) error
}

// Config holds the monitor's collaborators and settings.
type Config struct {
	Store    *position.Store
	Prices   price.Lookup
	Seller   Seller
	Rules    strategy.Rules
	Interval time.Duration
	// LookupTimeout bounds each price request.
	LookupTimeout time.Duration
	Logger        *zap.Logger
	Bus           *events.Bus      // optional
	Metrics       *metrics.Metrics // optional
	Now           func() time.Time // optional, for tests
}

// Monitor drives the position lifecycle from price observations.
type Monitor struct {
	store         *position.Store
	prices        price.Lookup
	seller        Seller
	rules         strategy.Rules
	interval      time.Duration
	lookupTimeout time.Duration
	logger        *zap.Logger
	bus           *events.Bus
	metrics       *metrics.Metrics
	now           func() time.Time
}

// New creates a monitor.
func New(cfg Config) *Monitor {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = defaultLookupTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Monitor{
		store:         cfg.Store,
		prices:        cfg.Prices,
		seller:        cfg.Seller,
		rules:         cfg.Rules,
		interval:      cfg.Interval,
		lookupTimeout: cfg.LookupTimeout,
		logger:        cfg.Logger.Named("monitor"),
		bus:           cfg.Bus,
		metrics:       cfg.Metrics,
		now:           cfg.Now,
	}
}

// Run ticks until ctx is cancelled. The first tick runs immediately.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("📈 Starting price monitor", zap.Duration("interval", m.interval))

	m.Tick(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Tick(ctx)
		case <-ctx.Done():
			m.logger.Debug("Price monitor stopped")
			return ctx.Err()
		}
	}
}

// Tick re-prices every open position once. A failure on one position does
// not stop the others.
func (m *Monitor) Tick(ctx context.Context) {
	for _, tokenID := range m.store.OpenTokens() {
		if ctx.Err() != nil {
			return
		}
		m.checkPosition(ctx, tokenID)
	}

	open, _ := m.store.Counts()
	m.metrics.SetOpenPositions(open)
	m.metrics.MonitorTick()
}

func (m *Monitor) checkPosition(ctx context.Context, tokenID string) {
	log := m.logger.With(zap.String("token", tokenID))

	current, ok := m.spotPrice(ctx, tokenID, log)
	if !ok {
		return
	}

	snap, captured, ok := m.store.ObservePrice(tokenID, current)
	if !ok {
		// closed while we were waiting on the price
		return
	}
	if captured {
		log.Info("🎯 Entry price set from first observed price", zap.Float64("entry", current))
		m.metrics.EntryCaptured("first_tick")
		m.publish(events.EntryCapturedEvent{
			BaseEvent: events.NewBase(events.EntryCaptured),
			TokenID:   tokenID,
			Price:     current,
			Source:    "first_tick",
		})
	}

	decision, fire := m.rules.Evaluate(snap, current, m.now())
	if !fire {
		log.Debug("Position checked",
			zap.Float64("price", current),
			zap.Float64("multiplier", snap.Multiplier(current)),
			zap.Float64("high", snap.HighWaterPrice),
			zap.Float64("sold", snap.SoldFraction))
		return
	}

	if err := m.seller.Sell(ctx, snap, decision, current); err != nil {
		log.Warn("Exit not executed, will re-evaluate next tick",
			zap.String("reason", decision.Label()),
			zap.Error(err))
	}
}

func (m *Monitor) spotPrice(ctx context.Context, tokenID string, log *zap.Logger) (float64, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.lookupTimeout)
	defer cancel()

	current, err := m.prices.SpotPrice(ctx, tokenID)
	if err != nil {
		log.Warn("Failed to get token price", zap.Error(err))
		m.metrics.PriceLookup("error")
		return 0, false
	}
	if current <= 0 {
		log.Debug("Price unavailable")
		m.metrics.PriceLookup("unavailable")
		return 0, false
	}
	m.metrics.PriceLookup("ok")
	return current, true
}

func (m *Monitor) publish(ev events.Event) {
	if m.bus != nil {
		_ = m.bus.Publish(ev)
	}
}
