package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultBufferSize = 256

var (
	ErrBusClosed  = errors.New("event bus is shutting down")
	ErrBufferFull = errors.New("event buffer full")
)

type registration struct {
	id      string
	handler Handler
}

// Bus delivers lifecycle events to subscribers. Publish is non-blocking;
// events are dispatched one at a time on a single goroutine, so every
// handler sees events in publish order, and handlers of one type run in
// the order they subscribed.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]registration

	queue   chan Event
	dropped atomic.Uint64

	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Stats is a point-in-time view of the bus.
type Stats struct {
	Pending     int
	Capacity    int
	Dropped     uint64
	Subscribers map[EventType]int
}

// NewBus starts a bus whose queue holds bufferSize events. A non-positive
// size selects the default.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		handlers: make(map[EventType][]registration),
		queue:    make(chan Event, bufferSize),
		logger:   logger.Named("event_bus"),
		ctx:      ctx,
		cancel:   cancel,
	}

	b.wg.Add(1)
	go b.run()
	return b
}

// Subscribe registers handler for events of type t.
func (b *Bus) Subscribe(t EventType, handler Handler) Subscription {
	id := uuid.NewString()

	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], registration{id: id, handler: handler})
	b.mu.Unlock()

	b.logger.Debug("Handler subscribed",
		zap.String("event_type", string(t)),
		zap.String("subscription_id", id))
	return &subscription{bus: b, id: id, typ: t}
}

// SubscribeFunc is Subscribe for a plain function.
func (b *Bus) SubscribeFunc(t EventType, fn func(context.Context, Event) error) Subscription {
	return b.Subscribe(t, HandlerFunc(fn))
}

// Publish queues event for dispatch. When the queue is full the event is
// dropped and counted, and ErrBufferFull is returned.
func (b *Bus) Publish(event Event) error {
	if b.ctx.Err() != nil {
		b.logger.Debug("Bus closed, event not delivered",
			zap.String("event_type", string(event.Type())))
		return ErrBusClosed
	}
	select {
	case b.queue <- event:
		return nil
	default:
		b.dropped.Add(1)
		b.logger.Warn("Event queue full, dropping event",
			zap.String("event_type", string(event.Type())))
		return ErrBufferFull
	}
}

// PublishSync runs every handler for event on the calling goroutine and
// returns their joined errors.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	regs := append([]registration(nil), b.handlers[event.Type()]...)
	b.mu.RUnlock()

	var errs []error
	for _, r := range regs {
		if err := b.dispatch(ctx, r, event); err != nil {
			b.logger.Error("Handler error",
				zap.String("event_type", string(event.Type())),
				zap.String("subscription_id", r.id),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) dispatch(ctx context.Context, r registration, event Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return r.handler.Handle(ctx, event)
}

func (b *Bus) run() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.queue:
			_ = b.PublishSync(b.ctx, event)
		case <-b.ctx.Done():
			// deliver what was queued before shutdown
			for {
				select {
				case event := <-b.queue:
					_ = b.PublishSync(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) unsubscribe(t EventType, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[t]
	for i, r := range regs {
		if r.id == id {
			b.handlers[t] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(b.handlers[t]) == 0 {
		delete(b.handlers, t)
	}
}

// Shutdown stops accepting events and waits until the queue is drained or
// ctx is done.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Debug("Event bus stopped", zap.Uint64("dropped", b.dropped.Load()))
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus shutdown timeout")
		return ctx.Err()
	}
}

// Close is Shutdown with a five second limit.
func (b *Bus) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.Shutdown(ctx)
}

func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := make(map[EventType]int, len(b.handlers))
	for t, regs := range b.handlers {
		subs[t] = len(regs)
	}
	return Stats{
		Pending:     len(b.queue),
		Capacity:    cap(b.queue),
		Dropped:     b.dropped.Load(),
		Subscribers: subs,
	}
}
