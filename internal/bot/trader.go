package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rovshanmuradov/coinsniper/internal/chat"
	"github.com/rovshanmuradov/coinsniper/internal/events"
	"github.com/rovshanmuradov/coinsniper/internal/logger"
	"github.com/rovshanmuradov/coinsniper/internal/metrics"
	"github.com/rovshanmuradov/coinsniper/internal/position"
	"github.com/rovshanmuradov/coinsniper/internal/price"
	"github.com/rovshanmuradov/coinsniper/internal/strategy"
	"go.uber.org/zap"
)

// TraderConfig holds the trader's collaborators and settings.
type TraderConfig struct {
	Sender        chat.Sender
	Peer          string // trading bot the commands go to
	BuyAmount     string // SOL per buy, as sent
	Store         *position.Store
	Prices        price.Lookup
	LookupTimeout time.Duration
	Logger        *zap.Logger
	Bus           *events.Bus      // optional
	Metrics       *metrics.Metrics // optional
	Now           func() time.Time // optional, for tests
}

// Trader turns buy and exit decisions into chat commands and records
// their effect on the position store.
type Trader struct {
	sender        chat.Sender
	peer          string
	buyAmount     string
	store         *position.Store
	prices        price.Lookup
	lookupTimeout time.Duration
	logger        *zap.Logger
	bus           *events.Bus
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewTrader(cfg TraderConfig) *Trader {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Trader{
		sender:        cfg.Sender,
		peer:          cfg.Peer,
		buyAmount:     cfg.BuyAmount,
		store:         cfg.Store,
		prices:        cfg.Prices,
		lookupTimeout: cfg.LookupTimeout,
		logger:        cfg.Logger.Named("trader"),
		bus:           cfg.Bus,
		metrics:       cfg.Metrics,
		now:           cfg.Now,
	}
}

// Buy sends a buy command and opens a position for tokenID. If the send
// fails no position is opened. The entry price is whatever the price
// lookup returns right after the send, 0 when unavailable.
//
// A token the store already holds, open or retained closed, is never
// bought again; Buy returns position.ErrAlreadyTracked without sending.
func (t *Trader) Buy(ctx context.Context, tokenID, source string) error {
	cmd := BuyCommand{TokenID: tokenID, Amount: t.buyAmount}
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid buy command: %w", err)
	}

	log := t.logger.With(zap.String("token", logger.ShortenAddress(tokenID)))

	if _, tracked := t.store.Get(tokenID); tracked {
		log.Debug("Position already tracked, skipping buy")
		return position.ErrAlreadyTracked
	}

	if err := t.sender.Send(ctx, t.peer, cmd.Text()); err != nil {
		t.metrics.BuyFailed()
		t.publish(events.BuyFailedEvent{
			BaseEvent: events.NewBase(events.BuyFailed),
			TokenID:   tokenID,
			Err:       err,
		})
		return fmt.Errorf("send buy command: %w", err)
	}
	t.metrics.BuySent()

	entry := t.entryPrice(ctx, tokenID, log)
	p, opened := t.store.Open(tokenID, entry, t.now())
	if !opened {
		log.Warn("Position already tracked, buy not recorded")
		return nil
	}

	log.Info(fmt.Sprintf("🛒 Bought %s SOL", t.buyAmount),
		zap.String("source", source),
		zap.Float64("entry", p.EntryPrice))
	t.publish(events.PositionOpenedEvent{
		BaseEvent:  events.NewBase(events.PositionOpened),
		TokenID:    tokenID,
		EntryPrice: p.EntryPrice,
		Amount:     t.buyAmount,
		Source:     source,
	})
	return nil
}

func (t *Trader) entryPrice(ctx context.Context, tokenID string, log *zap.Logger) float64 {
	ctx, cancel := context.WithTimeout(ctx, t.lookupTimeout)
	defer cancel()

	p, err := t.prices.SpotPrice(ctx, tokenID)
	if err != nil {
		log.Warn("Entry price unavailable at buy time", zap.Error(err))
		t.metrics.PriceLookup("error")
		return 0
	}
	if p <= 0 {
		t.metrics.PriceLookup("unavailable")
		return 0
	}
	t.metrics.PriceLookup("ok")
	return p
}

// Sell sends the exit command for d and commits the sold fraction once the
// send succeeded. A failed send leaves the position unchanged.
func (t *Trader) Sell(ctx context.Context, p position.Position, d strategy.Decision, current float64) error {
	if latest, ok := t.store.Get(p.TokenID); !ok || latest.Closed() {
		return nil
	}

	cmd := SellCommand{TokenID: p.TokenID, Percent: d.Percent}
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid sell command: %w", err)
	}

	if err := t.sender.Send(ctx, t.peer, cmd.Text()); err != nil {
		t.metrics.SellFailed()
		t.publish(events.SellFailedEvent{
			BaseEvent: events.NewBase(events.SellFailed),
			TokenID:   p.TokenID,
			Reason:    string(d.Reason),
			Percent:   d.Percent,
			Err:       err,
		})
		return fmt.Errorf("send sell command: %w", err)
	}

	updated, ok := t.store.ApplySell(p.TokenID, d.Percent, d.Full, t.now())
	if !ok {
		return nil
	}

	t.logger.Info(fmt.Sprintf("💰 Sold %d%% of %s | %s", d.Percent, logger.ShortenAddress(p.TokenID), d.Label()),
		zap.Float64("price", current),
		zap.Float64("multiplier", d.Multiplier),
		zap.Float64("sold", updated.SoldFraction),
		zap.Bool("closed", updated.Closed()))
	t.metrics.Sell(string(d.Reason))
	t.publish(events.PositionSoldEvent{
		BaseEvent:    events.NewBase(events.PositionSold),
		TokenID:      p.TokenID,
		Reason:       string(d.Reason),
		Label:        d.Label(),
		Percent:      d.Percent,
		Price:        current,
		Multiplier:   d.Multiplier,
		SoldFraction: updated.SoldFraction,
		Closed:       updated.Closed(),
	})
	return nil
}

func (t *Trader) publish(ev events.Event) {
	if t.bus != nil {
		_ = t.bus.Publish(ev)
	}
}
