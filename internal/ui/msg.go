package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/coinsniper/internal/events"
)

// tickMsg triggers a refresh of the positions table.
type tickMsg time.Time

// EventMsg carries a lifecycle event from the bus.
type EventMsg struct {
	Event events.Event
}

type eventsClosedMsg struct{}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// ListenEvents waits for the next event on ch.
func ListenEvents(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// SubscribeEvents forwards lifecycle events from bus into a buffered
// channel for the dashboard. Events are dropped when the channel is full.
// The returned func unsubscribes.
func SubscribeEvents(bus *events.Bus, buffer int) (<-chan events.Event, func()) {
	ch := make(chan events.Event, buffer)
	forward := func(ev events.Event) {
		select {
		case ch <- ev:
		default:
		}
	}

	var subs []events.Subscription
	for _, t := range []events.EventType{
		events.PositionOpened,
		events.EntryCaptured,
		events.PositionSold,
		events.BuyFailed,
		events.SellFailed,
	} {
		subs = append(subs, bus.Subscribe(t, events.HandlerFunc(func(_ context.Context, ev events.Event) error {
			forward(ev)
			return nil
		})))
	}

	return ch, func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}
}
