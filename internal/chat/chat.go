// Package chat delivers text commands to a trading bot and receives its
// replies.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrClosed       = errors.New("chat gateway closed")
	ErrNotConnected = errors.New("chat gateway not connected")
)

// Message is an inbound text message from the configured peer.
type Message struct {
	From       string
	Text       string
	ReceivedAt time.Time
}

// Sender delivers a command to a chat peer.
type Sender interface {
	Send(ctx context.Context, peer, text string) error
}

// Gateway is a Sender that also streams inbound messages from one peer.
type Gateway interface {
	Sender
	// Messages is closed when the gateway shuts down.
	Messages() <-chan Message
	Close() error
}

// SamePeer compares chat usernames ignoring case and a leading "@".
func SamePeer(a, b string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
	}
	return norm(a) == norm(b)
}
