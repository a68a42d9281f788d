package dispatch

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rickgao/footprint-data/internal/model"
)

// Config holds dispatcher settings.
type Config struct {
	// QueueSize is the per-viewer snapshot queue capacity.
	QueueSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{QueueSize: 64}
}

// Stats contains dispatcher counters.
type Stats struct {
	Viewers   int
	Published int64
	Dropped   int64
}

// Hub fans live candle snapshots out to subscribed viewers. Delivery is
// best-effort: each viewer has its own bounded queue and a full queue drops
// the oldest snapshot so the publisher never blocks. A stalled viewer
// therefore only ever loses its own updates.
type Hub struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	viewers map[uuid.UUID]*Subscription

	published int64
	dropped   int64
}

// Subscription is one viewer's live feed. Updates are received from
// Updates(); Close unsubscribes and releases the queue.
type Subscription struct {
	id  uuid.UUID
	hub *Hub
	ch  chan model.CandleSnapshot

	closeOnce sync.Once
}

// NewHub creates a dispatcher hub.
func NewHub(cfg Config, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		viewers: make(map[uuid.UUID]*Subscription),
	}
}

// Subscribe registers a new viewer and returns its feed.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		id:  uuid.New(),
		hub: h,
		ch:  make(chan model.CandleSnapshot, h.cfg.QueueSize),
	}

	h.mu.Lock()
	h.viewers[sub.id] = sub
	count := len(h.viewers)
	h.mu.Unlock()

	h.logger.Debug("viewer subscribed", "viewer", sub.id, "viewers", count)
	return sub
}

// Publish enqueues the snapshot on every viewer's queue without blocking.
// When a queue is full the oldest entry is evicted so the viewer catches up
// on the most recent state first.
func (h *Hub) Publish(snapshot model.CandleSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.published++
	for _, sub := range h.viewers {
		select {
		case sub.ch <- snapshot:
			continue
		default:
		}

		// Queue full: evict the oldest, then retry once.
		select {
		case <-sub.ch:
			h.dropped++
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
			h.dropped++
		}
	}
}

// Reset drains every viewer's pending backlog. Viewers stay subscribed.
func (h *Hub) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.viewers {
		for len(sub.ch) > 0 {
			select {
			case <-sub.ch:
			default:
			}
		}
	}
	h.logger.Debug("viewer backlogs cleared", "viewers", len(h.viewers))
}

// Stats returns current counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Viewers:   len(h.viewers),
		Published: h.published,
		Dropped:   h.dropped,
	}
}

func (h *Hub) unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	delete(h.viewers, id)
	count := len(h.viewers)
	h.mu.Unlock()

	h.logger.Debug("viewer unsubscribed", "viewer", id, "viewers", count)
}

// ID returns the viewer's identifier.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Updates returns the viewer's snapshot feed.
func (s *Subscription) Updates() <-chan model.CandleSnapshot { return s.ch }

// Close unsubscribes the viewer. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}
