package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one subscribed WebSocket session against the quote feed. Dial
// returns it already streaming: the subscribe command goes out before the
// first read, so every message surfaced on Messages belongs to the
// subscribed instrument. A session is single-use; once it errors or is
// closed the manager dials a fresh one.
type Conn interface {
	// Messages returns raw quote events with receive timestamps.
	Messages() <-chan TimestampedMessage

	// Errors reports the first fatal session error: a read failure or
	// silence past the liveness window.
	Errors() <-chan error

	// Connected reports whether the session is still live.
	Connected() bool

	// Close tears the session down. Safe to call more than once.
	Close() error
}

type conn struct {
	cfg    ConnConfig
	logger *slog.Logger

	ws *websocket.Conn

	messages chan TimestampedMessage
	errors   chan error
	done     chan struct{}

	mu       sync.Mutex
	live     bool
	lastSeen time.Time
	closed   bool
}

// Dial connects to the quote feed and issues the subscription. Any inbound
// frame (data, ping, or pong) counts as proof of liveness, so a feed that
// idles between trades stays up as long as its keepalives flow.
func Dial(ctx context.Context, cfg ConnConfig, sub subscribeCommand, logger *slog.Logger) (Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 1000
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal subscribe: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
	if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		ws.Close()
		return nil, fmt.Errorf("send subscribe: %w", err)
	}

	c := &conn{
		cfg:      cfg,
		logger:   logger,
		ws:       ws,
		messages: make(chan TimestampedMessage, cfg.BufferSize),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
		live:     true,
		lastSeen: time.Now(),
	}

	ws.SetPingHandler(func(data string) error {
		c.touch()
		return ws.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})
	ws.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	go c.readLoop()
	go c.keepaliveLoop()

	logger.Debug("feed session open", "url", cfg.URL)
	return c, nil
}

func (c *conn) Messages() <-chan TimestampedMessage {
	return c.messages
}

func (c *conn) Errors() <-chan error {
	return c.errors
}

func (c *conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Close tears the session down.
func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.live = false
	c.mu.Unlock()

	close(c.done)

	c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.ws.Close()
}

// touch records inbound traffic for the liveness check.
func (c *conn) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// fail marks the session dead and surfaces the first error.
func (c *conn) fail(err error) {
	c.mu.Lock()
	c.live = false
	c.mu.Unlock()

	select {
	case c.errors <- err:
	default:
	}
}

// readLoop forwards quote events until the connection fails or the session
// is closed. A full buffer drops the event rather than stall the read.
func (c *conn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			select {
			case <-c.done:
				// Closed locally, not a failure.
			default:
				c.fail(err)
			}
			return
		}
		c.touch()

		msg := TimestampedMessage{
			Data:       data,
			ReceivedAt: receivedAt,
		}
		select {
		case c.messages <- msg:
		case <-c.done:
			return
		default:
			c.logger.Warn("quote buffer full, dropping event")
		}
	}
}

// keepaliveLoop pings the feed and declares the session stale when nothing
// has arrived within the liveness window. The ping cadence is a third of
// the window so one lost ping cannot trip it.
func (c *conn) keepaliveLoop() {
	ticker := time.NewTicker(c.cfg.PingTimeout / 3)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			idle := time.Since(c.lastSeen)
			c.mu.Unlock()

			if idle > c.cfg.PingTimeout {
				c.logger.Warn("quote feed silent past liveness window", "idle", idle)
				c.fail(ErrStaleConnection)
				return
			}

			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("keepalive ping failed", "error", err)
			}
		}
	}
}
