package bot

import (
	"context"

	"github.com/rovshanmuradov/coinsniper/internal/chat"
	"github.com/rovshanmuradov/coinsniper/internal/events"
	"github.com/rovshanmuradov/coinsniper/internal/extract"
	"github.com/rovshanmuradov/coinsniper/internal/metrics"
	"github.com/rovshanmuradov/coinsniper/internal/position"
	"go.uber.org/zap"
)

// Reconciler reads trade confirmations from the trading bot and fills in
// entry prices that were unknown at buy time.
type Reconciler struct {
	store   *position.Store
	logger  *zap.Logger
	bus     *events.Bus
	metrics *metrics.Metrics
}

func NewReconciler(store *position.Store, logger *zap.Logger, bus *events.Bus, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		store:   store,
		logger:  logger.Named("reconciler"),
		bus:     bus,
		metrics: m,
	}
}

// Run consumes messages until ctx is cancelled or the channel closes.
func (r *Reconciler) Run(ctx context.Context, messages <-chan chat.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				r.logger.Debug("Message stream closed")
				return nil
			}
			r.Handle(msg.Text)
		}
	}
}

// Handle applies one confirmation message. It reports whether an entry
// price was captured. Messages without a token, without a price, or for a
// position whose entry is already known are ignored.
func (r *Reconciler) Handle(text string) bool {
	tokenID, ok := extract.First(text)
	if !ok {
		return false
	}
	entry, ok := extract.Price(text)
	if !ok || entry <= 0 {
		return false
	}

	if _, captured := r.store.CaptureEntry(tokenID, entry); !captured {
		return false
	}

	r.logger.Info("🎯 Entry price updated from confirmation",
		zap.String("token", tokenID),
		zap.Float64("entry", entry))
	r.metrics.EntryCaptured("confirmation")
	if r.bus != nil {
		_ = r.bus.Publish(events.EntryCapturedEvent{
			BaseEvent: events.NewBase(events.EntryCaptured),
			TokenID:   tokenID,
			Price:     entry,
			Source:    "confirmation",
		})
	}
	return true
}
