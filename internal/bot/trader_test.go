package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rovshanmuradov/coinsniper/internal/position"
	"github.com/rovshanmuradov/coinsniper/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTrader(t *testing.T, c *MockChat, p *MockPrices, store *position.Store) *Trader {
	t.Helper()
	return NewTrader(TraderConfig{
		Sender:    c,
		Peer:      "@GMGN_sol04_bot",
		BuyAmount: "0.1",
		Store:     store,
		Prices:    p,
		Logger:    zaptest.NewLogger(t),
		Now:       func() time.Time { return t0 },
	})
}

func TestTrader_Buy(t *testing.T) {
	c, p, store := NewMockChat(), NewMockPrices(), position.NewStore(10)
	p.Set(tokA, 0.002)
	tr := newTrader(t, c, p, store)

	require.NoError(t, tr.Buy(context.Background(), tokA, "alpha"))

	assert.Equal(t, []string{"/buy " + tokA + " 0.1"}, c.Sent())
	assert.Equal(t, []string{"@GMGN_sol04_bot"}, c.peers)

	pos, ok := store.Get(tokA)
	require.True(t, ok)
	assert.Equal(t, 0.002, pos.EntryPrice)
	assert.Equal(t, 0.002, pos.HighWaterPrice)
	assert.Equal(t, t0, pos.OpenedAt)
}

func TestTrader_BuyWithoutPrice(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unavailable", nil},
		{"lookup error", errors.New("rpc timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, p, store := NewMockChat(), NewMockPrices(), position.NewStore(10)
			p.err = tt.err
			tr := newTrader(t, c, p, store)

			require.NoError(t, tr.Buy(context.Background(), tokA, "alpha"))
			pos, ok := store.Get(tokA)
			require.True(t, ok)
			assert.False(t, pos.EntryKnown())
		})
	}
}

func TestTrader_BuySendFailureOpensNothing(t *testing.T) {
	c, p, store := NewMockChat(), NewMockPrices(), position.NewStore(10)
	c.SetFail(true)
	tr := newTrader(t, c, p, store)

	err := tr.Buy(context.Background(), tokA, "alpha")
	assert.ErrorIs(t, err, errBridgeDown)
	_, ok := store.Get(tokA)
	assert.False(t, ok)
}

func TestTrader_BuySkipsTrackedToken(t *testing.T) {
	c, p, store := NewMockChat(), NewMockPrices(), position.NewStore(10)
	tr := newTrader(t, c, p, store)

	require.NoError(t, tr.Buy(context.Background(), tokA, "alpha"))
	err := tr.Buy(context.Background(), tokA, "beta")
	assert.ErrorIs(t, err, position.ErrAlreadyTracked)
	assert.Len(t, c.Sent(), 1, "no second /buy for an open position")

	store.ApplySell(tokA, 100, true, t0)
	err = tr.Buy(context.Background(), tokA, "gamma")
	assert.ErrorIs(t, err, position.ErrAlreadyTracked)
	assert.Len(t, c.Sent(), 1, "no second /buy for a retained closed position")
}

func TestTrader_Sell(t *testing.T) {
	c, p, store := NewMockChat(), NewMockPrices(), position.NewStore(10)
	tr := newTrader(t, c, p, store)
	store.Open(tokA, 1.0, t0)

	rules := strategy.DefaultRules()
	snap, _, _ := store.ObservePrice(tokA, 2.0)
	d, fire := rules.Evaluate(snap, 2.0, t0)
	require.True(t, fire)

	require.NoError(t, tr.Sell(context.Background(), snap, d, 2.0))
	assert.Equal(t, []string{"/sell " + tokA + " 30%"}, c.Sent())

	pos, _ := store.Get(tokA)
	assert.InDelta(t, 0.30, pos.SoldFraction, 1e-9)
}

func TestTrader_SellFailureLeavesPosition(t *testing.T) {
	c, p, store := NewMockChat(), NewMockPrices(), position.NewStore(10)
	tr := newTrader(t, c, p, store)
	store.Open(tokA, 1.0, t0)
	c.SetFail(true)

	snap, _ := store.Get(tokA)
	d := strategy.Decision{Reason: strategy.ReasonHardStop, Percent: 100, Full: true}
	assert.Error(t, tr.Sell(context.Background(), snap, d, 0.4))

	pos, _ := store.Get(tokA)
	assert.Zero(t, pos.SoldFraction)
}

func TestTrader_SellClosedPositionIsNoop(t *testing.T) {
	c, p, store := NewMockChat(), NewMockPrices(), position.NewStore(10)
	tr := newTrader(t, c, p, store)
	store.Open(tokA, 1.0, t0)
	store.ApplySell(tokA, 100, true, t0)

	snap, _ := store.Get(tokA)
	d := strategy.Decision{Reason: strategy.ReasonHardStop, Percent: 100, Full: true}
	assert.NoError(t, tr.Sell(context.Background(), snap, d, 0.4))
	assert.Empty(t, c.Sent())
}
