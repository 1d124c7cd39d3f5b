package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestBus_PublishInOrder(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	bus.SubscribeFunc(PositionOpened, func(_ context.Context, e Event) error {
		mu.Lock()
		got = append(got, "opened:"+e.(PositionOpenedEvent).TokenID)
		mu.Unlock()
		return nil
	})
	bus.SubscribeFunc(PositionSold, func(_ context.Context, e Event) error {
		mu.Lock()
		got = append(got, "sold:"+e.(PositionSoldEvent).TokenID)
		mu.Unlock()
		close(done)
		return nil
	})

	require.NoError(t, bus.Publish(PositionOpenedEvent{BaseEvent: NewBase(PositionOpened), TokenID: "a"}))
	require.NoError(t, bus.Publish(PositionOpenedEvent{BaseEvent: NewBase(PositionOpened), TokenID: "b"}))
	require.NoError(t, bus.Publish(PositionSoldEvent{BaseEvent: NewBase(PositionSold), TokenID: "a"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events were not dispatched")
	}

	mu.Lock()
	assert.Equal(t, []string{"opened:a", "opened:b", "sold:a"}, got)
	mu.Unlock()

	require.NoError(t, bus.Close())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	defer bus.Close()

	calls := 0
	sub := bus.SubscribeFunc(EntryCaptured, func(context.Context, Event) error {
		calls++
		return nil
	})

	ev := EntryCapturedEvent{BaseEvent: NewBase(EntryCaptured), TokenID: "a", Price: 1}
	require.NoError(t, bus.PublishSync(context.Background(), ev))
	sub.Unsubscribe()
	sub.Unsubscribe()
	require.NoError(t, bus.PublishSync(context.Background(), ev))

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Stats().Subscribers[EntryCaptured])
}

func TestBus_PublishSyncCollectsErrors(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	defer bus.Close()

	bus.SubscribeFunc(BuyFailed, func(context.Context, Event) error {
		return errors.New("boom")
	})

	err := bus.PublishSync(context.Background(), BuyFailedEvent{BaseEvent: NewBase(BuyFailed)})
	assert.Error(t, err)
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 1)
	defer bus.Close()

	block := make(chan struct{})
	bus.SubscribeFunc(PositionOpened, func(context.Context, Event) error {
		<-block
		return nil
	})

	ev := PositionOpenedEvent{BaseEvent: NewBase(PositionOpened)}
	var failures int
	for i := 0; i < 10; i++ {
		if err := bus.Publish(ev); err != nil {
			assert.ErrorIs(t, err, ErrBufferFull)
			failures++
		}
	}
	close(block)

	assert.Greater(t, failures, 0)
	assert.Equal(t, uint64(failures), bus.Stats().Dropped)
}

func TestBus_SubscribersRunInOrder(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	defer bus.Close()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		bus.SubscribeFunc(PositionSold, func(context.Context, Event) error {
			got = append(got, i)
			return nil
		})
	}

	require.NoError(t, bus.PublishSync(context.Background(), PositionSoldEvent{BaseEvent: NewBase(PositionSold)}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	defer bus.Close()

	reached := false
	bus.SubscribeFunc(SellFailed, func(context.Context, Event) error {
		panic("journal exploded")
	})
	bus.SubscribeFunc(SellFailed, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := bus.PublishSync(context.Background(), SellFailedEvent{BaseEvent: NewBase(SellFailed)})
	assert.ErrorContains(t, err, "journal exploded")
	assert.True(t, reached)
}

func TestBus_PublishAfterClose(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	bus := NewBus(zap.New(core), 4)
	require.NoError(t, bus.Close())

	err := bus.Publish(PositionOpenedEvent{BaseEvent: NewBase(PositionOpened)})
	assert.ErrorIs(t, err, ErrBusClosed)

	closed := logs.FilterMessage("Bus closed, event not delivered").All()
	require.Len(t, closed, 1)
	assert.Equal(t, string(PositionOpened), closed[0].ContextMap()["event_type"])
}
