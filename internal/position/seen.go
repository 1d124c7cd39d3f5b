package position

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSeenCapacity bounds the seen-set when no capacity is configured.
const DefaultSeenCapacity = 10000

// SeenSet remembers token identifiers that were already acted upon.
// Membership is bounded: once capacity is exceeded the least recently
// marked identifier is forgotten.
type SeenSet struct {
	cache *lru.Cache[string, struct{}]
}

// NewSeenSet creates a seen-set holding at most capacity identifiers.
func NewSeenSet(capacity int) (*SeenSet, error) {
	if capacity <= 0 {
		capacity = DefaultSeenCapacity
	}
	cache, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, fmt.Errorf("create seen-set: %w", err)
	}
	return &SeenSet{cache: cache}, nil
}

// MarkIfNew records tokenID and reports whether it was not yet present.
// Check and insert happen atomically.
func (s *SeenSet) MarkIfNew(tokenID string) bool {
	found, _ := s.cache.ContainsOrAdd(tokenID, struct{}{})
	return !found
}

// Contains reports membership without refreshing recency.
func (s *SeenSet) Contains(tokenID string) bool {
	return s.cache.Contains(tokenID)
}

// Len returns the number of remembered identifiers.
func (s *SeenSet) Len() int {
	return s.cache.Len()
}
