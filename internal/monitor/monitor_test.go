package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rovshanmuradov/coinsniper/internal/metrics"
	"github.com/rovshanmuradov/coinsniper/internal/position"
	"github.com/rovshanmuradov/coinsniper/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockPrices returns fixed prices per token.
type MockPrices struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
	calls  map[string]int
}

func NewMockPrices() *MockPrices {
	return &MockPrices{
		prices: make(map[string]float64),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (p *MockPrices) Set(token string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[token] = price
}

func (p *MockPrices) SpotPrice(_ context.Context, token string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[token]++
	if err := p.errs[token]; err != nil {
		return 0, err
	}
	return p.prices[token], nil
}

// MockSeller applies decisions straight to the store, or fails.
type MockSeller struct {
	store     *position.Store
	decisions []strategy.Decision
	fail      error
}

func (s *MockSeller) Sell(_ context.Context, p position.Position, d strategy.Decision, _ float64) error {
	if s.fail != nil {
		return s.fail
	}
	s.decisions = append(s.decisions, d)
	s.store.ApplySell(p.TokenID, d.Percent, d.Full, time.Now())
	return nil
}

func newTestMonitor(t *testing.T, store *position.Store, prices *MockPrices, seller Seller) *Monitor {
	t.Helper()
	rules := strategy.DefaultRules()
	rules.MaxHold = 10 * time.Second
	return New(Config{
		Store:    store,
		Prices:   prices,
		Seller:   seller,
		Rules:    rules,
		Interval: 10 * time.Millisecond,
		Logger:   zaptest.NewLogger(t),
		Metrics:  metrics.New(prometheus.NewRegistry()),
	})
}

func TestTick_FirstPriceBecomesEntry(t *testing.T) {
	store := position.NewStore(0)
	store.Open("tok", 0, time.Now())
	prices := NewMockPrices()
	prices.Set("tok", 0.5)
	seller := &MockSeller{store: store}

	newTestMonitor(t, store, prices, seller).Tick(context.Background())

	p, _ := store.Get("tok")
	assert.Equal(t, 0.5, p.EntryPrice)
	assert.Equal(t, 0.5, p.HighWaterPrice)
	assert.Equal(t, 0.5, p.LastPrice)
	assert.Empty(t, seller.decisions)
}

func TestTick_UnavailablePriceIsSkipped(t *testing.T) {
	store := position.NewStore(0)
	store.Open("zero", 1, time.Now())
	store.Open("broken", 1, time.Now())
	store.Open("good", 1, time.Now())

	prices := NewMockPrices()
	prices.errs["broken"] = errors.New("timeout")
	prices.Set("good", 2)
	seller := &MockSeller{store: store}

	newTestMonitor(t, store, prices, seller).Tick(context.Background())

	zero, _ := store.Get("zero")
	assert.Equal(t, 1.0, zero.LastPrice, "no mutation on unavailable price")
	broken, _ := store.Get("broken")
	assert.Equal(t, 1.0, broken.LastPrice)

	good, _ := store.Get("good")
	assert.Equal(t, 0.3, good.SoldFraction, "other positions still evaluated")
	require.Len(t, seller.decisions, 1)
	assert.Equal(t, strategy.ReasonTakeProfit, seller.decisions[0].Reason)
}

func TestTick_ClosedPositionsAreSkipped(t *testing.T) {
	store := position.NewStore(0)
	store.Open("done", 1, time.Now())
	store.ApplySell("done", 100, true, time.Now())

	prices := NewMockPrices()
	prices.Set("done", 0.1)

	newTestMonitor(t, store, prices, &MockSeller{store: store}).Tick(context.Background())
	assert.Zero(t, prices.calls["done"])
}

func TestTick_SellFailureLeavesPositionUntouched(t *testing.T) {
	store := position.NewStore(0)
	store.Open("tok", 1, time.Now())
	prices := NewMockPrices()
	prices.Set("tok", 0.5)

	m := newTestMonitor(t, store, prices, &MockSeller{store: store, fail: errors.New("bridge down")})
	m.Tick(context.Background())

	p, _ := store.Get("tok")
	assert.Equal(t, 0.0, p.SoldFraction)
	assert.False(t, p.Closed())

	// delivery recovers: the hard stop fires again on the next tick
	seller := &MockSeller{store: store}
	m.seller = seller
	m.Tick(context.Background())

	p, _ = store.Get("tok")
	assert.True(t, p.Closed())
	require.Len(t, seller.decisions, 1)
	assert.Equal(t, strategy.ReasonHardStop, seller.decisions[0].Reason)
}

func TestTick_PriceSequence(t *testing.T) {
	store := position.NewStore(0)
	store.Open("tok", 1, time.Now())
	prices := NewMockPrices()
	seller := &MockSeller{store: store}
	m := newTestMonitor(t, store, prices, seller)

	var lastHigh, lastSold float64
	for _, px := range []float64{1.2, 2.0, 2.4, 0, 5.0, 4.5, 3.0, 3.5} {
		prices.Set("tok", px)
		m.Tick(context.Background())

		p, _ := store.Get("tok")
		assert.GreaterOrEqual(t, p.HighWaterPrice, lastHigh)
		assert.GreaterOrEqual(t, p.SoldFraction, lastSold)
		assert.LessOrEqual(t, p.SoldFraction, 1.0)
		lastHigh, lastSold = p.HighWaterPrice, p.SoldFraction
	}

	p, _ := store.Get("tok")
	assert.True(t, p.Closed(), "trailing stop closes the position after the 5x peak")
	reasons := make([]strategy.Reason, len(seller.decisions))
	for i, d := range seller.decisions {
		reasons[i] = d.Reason
	}
	assert.Equal(t, []strategy.Reason{
		strategy.ReasonTakeProfit, strategy.ReasonTakeProfit, strategy.ReasonTrailingStop,
	}, reasons)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := position.NewStore(0)
	store.Open("tok", 0, time.Now())
	prices := NewMockPrices()
	prices.Set("tok", 1)

	m := newTestMonitor(t, store, prices, &MockSeller{store: store})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}

	p, _ := store.Get("tok")
	assert.Equal(t, 1.0, p.EntryPrice)
}
