package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait is the time allowed to write a message to the bridge.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the bridge.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	defaultReconnectDelay    = 2 * time.Second
	defaultMaxReconnectDelay = 60 * time.Second
	defaultDialElapsed       = 2 * time.Minute

	inboundBuffer = 64
)

// frame is the JSON envelope exchanged with the bridge.
type frame struct {
	Type string `json:"type"`
	Peer string `json:"peer,omitempty"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

// BridgeConfig configures a websocket chat bridge connection.
type BridgeConfig struct {
	URL   string
	Token string
	// Peer is the only sender whose messages are delivered by Messages.
	Peer string

	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	// DialTimeout bounds the initial connection attempts.
	DialTimeout time.Duration
}

// Bridge is a Gateway backed by a websocket connection to a chat relay
// that owns the user session.
type Bridge struct {
	cfg    BridgeConfig
	logger *zap.Logger
	dialer websocket.Dialer

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	messages chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// DialBridge connects to the bridge, retrying with exponential backoff for
// up to cfg.DialTimeout, and starts the read and keepalive loops.
func DialBridge(ctx context.Context, cfg BridgeConfig, logger *zap.Logger) (*Bridge, error) {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxReconnectDelay <= 0 {
		cfg.MaxReconnectDelay = defaultMaxReconnectDelay
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialElapsed
	}

	bctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		cfg:      cfg,
		logger:   logger.Named("chat"),
		dialer:   websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		messages: make(chan Message, inboundBuffer),
		ctx:      bctx,
		cancel:   cancel,
	}

	if err := b.dial(ctx, cfg.DialTimeout); err != nil {
		cancel()
		return nil, fmt.Errorf("connect chat bridge: %w", err)
	}

	b.logger.Info("💬 Connected to chat bridge", zap.String("peer", cfg.Peer))

	b.wg.Add(2)
	go b.readLoop()
	go b.pingLoop()
	return b, nil
}

// Send writes one command frame addressed to peer.
func (b *Bridge) Send(ctx context.Context, peer, text string) error {
	if b.ctx.Err() != nil {
		return ErrClosed
	}

	data, err := json.Marshal(frame{Type: "send", Peer: peer, Text: text})
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	conn := b.current()
	if conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Messages implements Gateway.
func (b *Bridge) Messages() <-chan Message {
	return b.messages
}

// Close stops the loops and closes the connection.
func (b *Bridge) Close() error {
	var err error
	b.once.Do(func() {
		b.cancel()

		b.mu.Lock()
		conn := b.conn
		b.conn = nil
		b.mu.Unlock()

		if conn != nil {
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			err = conn.Close()
		}
		b.wg.Wait()
	})
	return err
}

func (b *Bridge) current() *websocket.Conn {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conn
}

// connect performs a single dial attempt.
func (b *Bridge) connect(ctx context.Context) error {
	header := http.Header{}
	if b.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+b.cfg.Token)
	}

	conn, _, err := b.dialer.DialContext(ctx, b.cfg.URL, header)
	if err != nil {
		return err
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx.Err() != nil {
		_ = conn.Close()
		return backoff.Permanent(ErrClosed)
	}
	b.conn = conn
	return nil
}

// dial retries connect with exponential backoff until it succeeds, ctx is
// done or maxElapsed passes.
func (b *Bridge) dial(ctx context.Context, maxElapsed time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.cfg.ReconnectDelay
	policy.MaxInterval = b.cfg.MaxReconnectDelay

	operation := func() (struct{}, error) {
		return struct{}{}, b.connect(ctx)
	}
	notify := func(err error, next time.Duration) {
		b.logger.Warn("Chat bridge dial failed, retrying",
			zap.Error(err),
			zap.Duration("retry_in", next))
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(notify),
	)
	return err
}

// reconnect replaces a dead connection. It returns false once the bridge
// is closed.
func (b *Bridge) reconnect() bool {
	for {
		if b.ctx.Err() != nil {
			return false
		}
		if err := b.dial(b.ctx, 15*time.Minute); err == nil {
			b.logger.Info("💬 Reconnected to chat bridge")
			return true
		}
	}
}

func (b *Bridge) readLoop() {
	defer b.wg.Done()
	defer close(b.messages)

	for {
		conn := b.current()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Warn("Chat bridge connection lost", zap.Error(err))

			b.mu.Lock()
			if b.conn == conn {
				b.conn = nil
			}
			b.mu.Unlock()
			_ = conn.Close()

			if !b.reconnect() {
				return
			}
			continue
		}

		b.handle(raw)
	}
}

func (b *Bridge) handle(raw []byte) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		b.logger.Debug("Dropping malformed frame", zap.Error(err))
		return
	}
	if f.Type != "message" {
		return
	}
	if !SamePeer(f.From, b.cfg.Peer) {
		return
	}

	msg := Message{From: f.From, Text: f.Text, ReceivedAt: time.Now()}
	select {
	case b.messages <- msg:
	case <-b.ctx.Done():
	}
}

func (b *Bridge) pingLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			conn := b.current()
			if conn == nil {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				b.logger.Debug("Ping failed", zap.Error(err))
			}
		}
	}
}
