package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/footprint-data/internal/model"
)

// Manager owns the feed connection lifecycle: it dials, subscribes,
// normalizes raw messages into Ticks, and reconnects with exponential
// backoff when the connection drops. The engine consumes Ticks() from a
// single processing goroutine and never sees connection churn.
type Manager struct {
	cfg        ManagerConfig
	normalizer *Normalizer
	logger     *slog.Logger

	ticks chan model.Tick

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	sess         Conn
	reconnects   int64
	parseErrors  int64
	ticksEmitted int64
	skipped      int64
}

// ManagerStats contains feed manager counters.
type ManagerStats struct {
	Connected    bool
	Reconnects   int64
	ParseErrors  int64
	TicksEmitted int64
	Skipped      int64
}

// NewManager creates a feed manager.
func NewManager(cfg ManagerConfig, normalizer *Normalizer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 1000
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = time.Second
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = 60 * time.Second
	}
	return &Manager{
		cfg:        cfg,
		normalizer: normalizer,
		logger:     logger,
		ticks:      make(chan model.Tick, cfg.BufferSize),
	}
}

// Ticks returns the normalized tick stream.
func (m *Manager) Ticks() <-chan model.Tick {
	return m.ticks
}

// Start connects and begins streaming ticks.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.runLoop()

	m.logger.Info("feed manager started",
		"url", m.cfg.URL,
		"token", m.cfg.Token,
	)
	return nil
}

// Stop shuts the manager down.
func (m *Manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping feed manager")

	if m.cancel != nil {
		m.cancel()
	}

	m.mu.Lock()
	if m.sess != nil {
		m.sess.Close()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("feed manager stopped")
	case <-ctx.Done():
		m.logger.Warn("feed manager stop timed out")
	}
	return nil
}

// Stats returns current counters.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ManagerStats{
		Connected:    m.sess != nil && m.sess.Connected(),
		Reconnects:   m.reconnects,
		ParseErrors:  m.parseErrors,
		TicksEmitted: m.ticksEmitted,
		Skipped:      m.skipped,
	}
}

// runLoop connects, streams until the connection fails, then reconnects
// with exponential backoff.
func (m *Manager) runLoop() {
	defer m.wg.Done()

	wait := m.cfg.ReconnectBaseDelay

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		sess, err := m.connect()
		if err != nil {
			m.logger.Warn("feed connect failed", "error", err, "retry_in", wait)

			select {
			case <-m.ctx.Done():
				return
			case <-time.After(wait):
			}
			wait *= 2
			if wait > m.cfg.ReconnectMaxDelay {
				wait = m.cfg.ReconnectMaxDelay
			}
			continue
		}

		wait = m.cfg.ReconnectBaseDelay
		m.stream(sess)
		sess.Close()

		select {
		case <-m.ctx.Done():
			return
		default:
		}
		m.mu.Lock()
		m.reconnects++
		m.mu.Unlock()
	}
}

// connect dials a subscribed session for the configured instrument.
func (m *Manager) connect() (Conn, error) {
	cmd := subscribeCommand{
		CorrelationID: m.cfg.CorrelationID,
		Action:        subscribeAction,
		Params: subscribeParams{
			Mode: quoteMode,
			TokenList: []tokenList{
				{ExchangeType: m.cfg.ExchangeType, Tokens: []string{m.cfg.Token}},
			},
		},
	}

	sess, err := Dial(m.ctx, ConnConfig{
		URL:          m.cfg.URL,
		PingTimeout:  m.cfg.PingTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		BufferSize:   m.cfg.BufferSize,
	}, cmd, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sess = sess
	m.mu.Unlock()

	m.logger.Info("feed subscribed",
		"correlation_id", m.cfg.CorrelationID,
		"token", m.cfg.Token,
	)
	return sess, nil
}

// stream forwards normalized ticks until the session errors or the
// manager stops.
func (m *Manager) stream(sess Conn) {
	for {
		select {
		case <-m.ctx.Done():
			return

		case err := <-sess.Errors():
			m.logger.Warn("feed connection lost", "error", err)
			return

		case msg, ok := <-sess.Messages():
			if !ok {
				return
			}

			tick, ok, err := m.normalizer.Normalize(msg)
			if err != nil {
				m.mu.Lock()
				m.parseErrors++
				m.mu.Unlock()
				m.logger.Warn("malformed feed event dropped", "error", err)
				continue
			}
			if !ok {
				m.mu.Lock()
				m.skipped++
				m.mu.Unlock()
				continue
			}

			select {
			case m.ticks <- tick:
				m.mu.Lock()
				m.ticksEmitted++
				m.mu.Unlock()
			case <-m.ctx.Done():
				return
			}
		}
	}
}
