package events

import (
	"context"
	"sync"
)

// Handler reacts to one published event. Handlers run on the bus
// goroutine and should return quickly.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Subscription is returned by Subscribe; Unsubscribe may be called more
// than once.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	bus  *Bus
	id   string
	typ  EventType
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.unsubscribe(s.typ, s.id)
	})
}
