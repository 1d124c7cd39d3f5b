package position

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrAlreadyTracked reports a buy for a token the store already holds.
var ErrAlreadyTracked = errors.New("position already tracked")

// DefaultClosedRetention bounds how many closed positions the store keeps.
const DefaultClosedRetention = 1000

var one = decimal.NewFromInt(1)

// Store is the authoritative map of positions keyed by token identifier.
//
// Every method holds the lock only for the duration of an in-memory
// read-modify-write; callers do their I/O between calls, never inside one.
type Store struct {
	mu        sync.Mutex
	positions map[string]*Position
	closed    []string // token ids in close order, oldest first
	retention int
}

// NewStore creates an empty store that keeps at most retention closed positions.
func NewStore(retention int) *Store {
	if retention <= 0 {
		retention = DefaultClosedRetention
	}
	return &Store{
		positions: make(map[string]*Position),
		retention: retention,
	}
}

// Open creates a position for tokenID. An existing position is never
// replaced; in that case the existing snapshot is returned with false.
func (s *Store) Open(tokenID string, price float64, openedAt time.Time) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.positions[tokenID]; ok {
		return *p, false
	}
	if price < 0 {
		price = 0
	}
	p := &Position{
		TokenID:        tokenID,
		EntryPrice:     price,
		HighWaterPrice: price,
		LastPrice:      price,
		OpenedAt:       openedAt,
	}
	s.positions[tokenID] = p
	return *p, true
}

// Get returns a snapshot of the position for tokenID.
func (s *Store) Get(tokenID string) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[tokenID]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// OpenTokens lists the identifiers of positions that are not closed,
// oldest first.
func (s *Store) OpenTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	open := make([]*Position, 0, len(s.positions))
	for _, p := range s.positions {
		if !p.Closed() {
			open = append(open, p)
		}
	}
	sortByOpened(open)

	ids := make([]string, len(open))
	for i, p := range open {
		ids[i] = p.TokenID
	}
	return ids
}

// Snapshot copies every retained position, oldest first.
func (s *Store) Snapshot() []Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*Position, 0, len(s.positions))
	for _, p := range s.positions {
		all = append(all, p)
	}
	sortByOpened(all)

	out := make([]Position, len(all))
	for i, p := range all {
		out[i] = *p
	}
	return out
}

// Counts returns the number of open and retained closed positions.
func (s *Store) Counts() (open, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.positions {
		if p.Closed() {
			closed++
		} else {
			open++
		}
	}
	return open, closed
}

// ObservePrice records a fresh market price for an open position.
//
// When the entry price is still unknown it is set to price (first price
// seen). The high-water mark is raised to price if higher and the last
// price is updated. It returns the updated snapshot, whether the entry was
// captured by this call, and false if the position is missing, closed, or
// price is not positive.
func (s *Store) ObservePrice(tokenID string, price float64) (Position, bool, bool) {
	if price <= 0 {
		return Position{}, false, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[tokenID]
	if !ok || p.Closed() {
		return Position{}, false, false
	}

	captured := false
	if p.EntryPrice == 0 {
		p.EntryPrice = price
		p.HighWaterPrice = price
		captured = true
	}
	if price > p.HighWaterPrice {
		p.HighWaterPrice = price
	}
	p.LastPrice = price
	return *p, captured, true
}

// CaptureEntry sets the entry price of a position whose entry is still
// unknown. It reports false, leaving the position untouched, if the
// position is missing or already has an entry price.
func (s *Store) CaptureEntry(tokenID string, price float64) (Position, bool) {
	if price <= 0 {
		return Position{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[tokenID]
	if !ok || p.EntryPrice != 0 {
		return Position{}, false
	}

	p.EntryPrice = price
	if price > p.HighWaterPrice {
		p.HighWaterPrice = price
	}
	p.LastPrice = price
	return *p, true
}

// ApplySell adds percent/100 of the original size to the sold fraction,
// clamped to 1. With full set the position is closed outright.
// It reports false if the position is missing or already closed.
func (s *Store) ApplySell(tokenID string, percent int, full bool, at time.Time) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[tokenID]
	if !ok || p.Closed() {
		return Position{}, false
	}

	sold := decimal.NewFromFloat(p.SoldFraction).Add(decimal.New(int64(percent), -2))
	if full || sold.GreaterThanOrEqual(one) {
		sold = one
	}
	if next := sold.InexactFloat64(); next > p.SoldFraction {
		p.SoldFraction = next
	}

	snap := *p
	if p.Closed() {
		p.ClosedAt = at
		snap.ClosedAt = at
		s.closed = append(s.closed, tokenID)
		s.evictClosed()
	}
	return snap, true
}

// evictClosed drops the oldest closed positions beyond the retention bound.
// Caller holds mu.
func (s *Store) evictClosed() {
	for len(s.closed) > s.retention {
		delete(s.positions, s.closed[0])
		s.closed = s.closed[1:]
	}
}

func sortByOpened(ps []*Position) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].OpenedAt.Equal(ps[j].OpenedAt) {
			return ps[i].TokenID < ps[j].TokenID
		}
		return ps[i].OpenedAt.Before(ps[j].OpenedAt)
	})
}
