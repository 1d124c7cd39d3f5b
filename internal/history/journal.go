// Package history records every trade command for later review.
package history

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rovshanmuradov/coinsniper/internal/events"
	"go.uber.org/zap"
)

// Stats are running totals since start.
type Stats struct {
	Buys        int
	Sells       int
	Closed      int
	FailedBuys  int
	FailedSells int
}

// Journal keeps recent trades in memory and optionally appends them to a
// CSV file.
type Journal struct {
	mu        sync.RWMutex
	csvFile   *tradeFile
	trades    []Trade
	maxTrades int
	stats     Stats
	logger    *zap.Logger
	subs      []events.Subscription
}

// NewJournal creates a journal. With an empty logDir nothing is written to
// disk.
func NewJournal(logDir string, maxTrades int, logger *zap.Logger) (*Journal, error) {
	if maxTrades <= 0 {
		maxTrades = 100
	}
	j := &Journal{
		trades:    make([]Trade, 0, maxTrades),
		maxTrades: maxTrades,
		logger:    logger.Named("journal"),
	}

	if logDir != "" {
		filename := fmt.Sprintf("trades_%s.csv", time.Now().Format("20060102_150405"))
		w, err := openTradeFile(filepath.Join(logDir, filename), CSVHeaders(), 30*time.Second, j.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV writer: %w", err)
		}
		j.csvFile = w
		j.logger.Info("📒 Trade journal initialized", zap.String("csv_file", w.Path()))
	}
	return j, nil
}

// Attach subscribes the journal to position lifecycle events.
func (j *Journal) Attach(bus *events.Bus) {
	j.subs = append(j.subs,
		bus.SubscribeFunc(events.PositionOpened, j.handle),
		bus.SubscribeFunc(events.PositionSold, j.handle),
		bus.SubscribeFunc(events.BuyFailed, j.handle),
		bus.SubscribeFunc(events.SellFailed, j.handle),
	)
}

func (j *Journal) handle(_ context.Context, ev events.Event) error {
	t := Trade{Timestamp: ev.Timestamp()}

	switch e := ev.(type) {
	case events.PositionOpenedEvent:
		t.TokenID, t.Action, t.Amount = e.TokenID, ActionBuy, e.Amount
		t.Price, t.Source, t.Success = e.EntryPrice, e.Source, true
	case events.PositionSoldEvent:
		t.TokenID, t.Action, t.Percent, t.Reason = e.TokenID, ActionSell, e.Percent, e.Label
		t.Price, t.Multiplier = e.Price, e.Multiplier
		t.SoldFraction, t.Closed, t.Success = e.SoldFraction, e.Closed, true
	case events.BuyFailedEvent:
		t.TokenID, t.Action = e.TokenID, ActionBuy
		t.ErrorMsg = errString(e.Err)
	case events.SellFailedEvent:
		t.TokenID, t.Action, t.Percent, t.Reason = e.TokenID, ActionSell, e.Percent, e.Reason
		t.ErrorMsg = errString(e.Err)
	default:
		return nil
	}
	return j.Record(t)
}

// Record stores a trade.
func (j *Journal) Record(t Trade) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.csvFile != nil {
		if err := j.csvFile.Append(t.ToCSV()); err != nil {
			j.logger.Error("Failed to write trade to CSV", zap.String("trade_id", t.ID), zap.Error(err))
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}

	if len(j.trades) >= j.maxTrades {
		j.trades = j.trades[1:]
	}
	j.trades = append(j.trades, t)

	switch {
	case t.Action == ActionBuy && t.Success:
		j.stats.Buys++
	case t.Action == ActionBuy:
		j.stats.FailedBuys++
	case t.Action == ActionSell && t.Success:
		j.stats.Sells++
		if t.Closed {
			j.stats.Closed++
		}
	case t.Action == ActionSell:
		j.stats.FailedSells++
	}
	return nil
}

// Recent returns up to limit trades, oldest first.
func (j *Journal) Recent(limit int) []Trade {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 || limit > len(j.trades) {
		limit = len(j.trades)
	}
	out := make([]Trade, limit)
	copy(out, j.trades[len(j.trades)-limit:])
	return out
}

// Stats returns the running totals.
func (j *Journal) Stats() Stats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.stats
}

// Close unsubscribes from the bus and flushes the CSV file.
func (j *Journal) Close() error {
	for _, s := range j.subs {
		s.Unsubscribe()
	}
	j.subs = nil

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.csvFile == nil {
		return nil
	}
	err := j.csvFile.Close()
	j.csvFile = nil
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
