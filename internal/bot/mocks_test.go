package bot

import (
	"context"
	"errors"
	"sync"

	"github.com/rovshanmuradov/coinsniper/internal/chat"
)

const (
	tokA = "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr"
	tokB = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

var errBridgeDown = errors.New("bridge down")

// MockChat records outgoing commands and delivers queued inbound messages.
type MockChat struct {
	mu       sync.Mutex
	sent     []string
	peers    []string
	fail     bool
	closed   bool
	messages chan chat.Message
}

func NewMockChat() *MockChat {
	return &MockChat{messages: make(chan chat.Message, 16)}
}

func (c *MockChat) Send(_ context.Context, peer, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errBridgeDown
	}
	c.sent = append(c.sent, text)
	c.peers = append(c.peers, peer)
	return nil
}

func (c *MockChat) Messages() <-chan chat.Message { return c.messages }

func (c *MockChat) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *MockChat) SetFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

func (c *MockChat) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func (c *MockChat) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// MockPrices returns a settable price per token.
type MockPrices struct {
	mu     sync.Mutex
	prices map[string]float64
	err    error
}

func NewMockPrices() *MockPrices {
	return &MockPrices{prices: make(map[string]float64)}
}

func (p *MockPrices) SpotPrice(_ context.Context, tokenID string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	return p.prices[tokenID], nil
}

func (p *MockPrices) Set(tokenID string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[tokenID] = price
}

// MockFeed serves the same posts for every handle.
type MockFeed struct {
	mu    sync.Mutex
	posts []string
}

func (f *MockFeed) ResolveUser(_ context.Context, handle string) (string, error) {
	return "id-" + handle, nil
}

func (f *MockFeed) LatestPosts(_ context.Context, _, _ string, count int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	posts := f.posts
	if len(posts) > count {
		posts = posts[:count]
	}
	return append([]string(nil), posts...), nil
}

func (f *MockFeed) SetPosts(posts ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = posts
}
