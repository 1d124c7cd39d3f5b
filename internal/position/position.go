// Package position holds the in-memory trade state of the engine.
package position

import "time"

// Position is the tracked state of one buy-to-exit trade.
type Position struct {
	TokenID        string
	EntryPrice     float64 // 0 until known
	HighWaterPrice float64
	SoldFraction   float64 // [0, 1]; 1 means closed
	OpenedAt       time.Time
	LastPrice      float64
	ClosedAt       time.Time
}

// Closed reports whether the position has been fully exited.
func (p Position) Closed() bool {
	return p.SoldFraction >= 1.0
}

// EntryKnown reports whether an entry price has been recorded.
func (p Position) EntryKnown() bool {
	return p.EntryPrice > 0
}

// Multiplier returns price relative to the entry price, or 0 when entry is unknown.
func (p Position) Multiplier(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return price / p.EntryPrice
}

// Remaining is the fraction of the original size still held.
func (p Position) Remaining() float64 {
	if p.SoldFraction >= 1 {
		return 0
	}
	return 1 - p.SoldFraction
}
