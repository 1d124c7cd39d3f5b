// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Position lifecycle
	PositionOpened EventType = "position.opened"
	EntryCaptured  EventType = "position.entry_captured"
	PositionSold   EventType = "position.sold"

	// Command delivery failures
	BuyFailed  EventType = "command.buy_failed"
	SellFailed EventType = "command.sell_failed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// NewBase stamps an event of type t with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// PositionOpenedEvent is emitted after a buy command was delivered and the
// position was recorded.
type PositionOpenedEvent struct {
	BaseEvent
	TokenID    string
	EntryPrice float64 // 0 when no price was available at buy time
	Amount     string  // buy size as sent to the trading bot
	Source     string  // account handle the token was found in
}

// EntryCapturedEvent is emitted when a position's unknown entry price is
// filled in.
type EntryCapturedEvent struct {
	BaseEvent
	TokenID string
	Price   float64
	Source  string // "confirmation" or "first_tick"
}

// PositionSoldEvent is emitted after a sell command was delivered and
// applied to the position.
type PositionSoldEvent struct {
	BaseEvent
	TokenID      string
	Reason       string
	Label        string
	Percent      int
	Price        float64
	Multiplier   float64
	SoldFraction float64
	Closed       bool
}

// BuyFailedEvent is emitted when a buy command could not be delivered.
type BuyFailedEvent struct {
	BaseEvent
	TokenID string
	Err     error
}

// SellFailedEvent is emitted when a sell command could not be delivered.
type SellFailedEvent struct {
	BaseEvent
	TokenID string
	Reason  string
	Percent int
	Err     error
}
