package store

import (
	"sync"

	"github.com/rickgao/footprint-data/internal/model"
)

// Queue is a fixed-capacity ring buffer of sealed candles between the
// engine and the persist worker. Send never blocks: when the queue is full
// it fails and the caller decides what to do with the candle.
type Queue struct {
	mu       sync.Mutex
	buf      []*model.Candle
	head     int
	tail     int
	count    int
	capacity int
	closed   bool
	ready    chan struct{}

	totalEnqueued int64
	totalDequeued int64
	rejected      int64
}

// NewQueue creates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		buf:      make([]*model.Candle, capacity),
		capacity: capacity,
		ready:    make(chan struct{}, 1),
	}
}

// Send adds a candle. Returns false when the queue is full or closed.
func (q *Queue) Send(c *model.Candle) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.count == q.capacity {
		q.rejected++
		return false
	}

	q.buf[q.tail] = c
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	q.totalEnqueued++

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready signals after a successful Send. The signal coalesces, so a
// receiver must drain with TryReceive until empty before waiting again.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// TryReceive removes and returns the oldest candle without blocking.
func (q *Queue) TryReceive() (*model.Candle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil, false
	}

	c := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % q.capacity
	q.count--
	q.totalDequeued++
	return c, true
}

// Drain removes and returns all queued candles in order.
func (q *Queue) Drain() []*model.Candle {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}

	out := make([]*model.Candle, 0, q.count)
	for q.count > 0 {
		out = append(out, q.buf[q.head])
		q.buf[q.head] = nil
		q.head = (q.head + 1) % q.capacity
		q.count--
		q.totalDequeued++
	}
	return out
}

// Close marks the queue closed. Subsequent Sends fail; queued candles stay
// receivable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Len returns the number of queued candles.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// QueueStats contains queue counters.
type QueueStats struct {
	Count    int
	Capacity int
	Enqueued int64
	Dequeued int64
	Rejected int64
}

// Stats returns current counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Count:    q.count,
		Capacity: q.capacity,
		Enqueued: q.totalEnqueued,
		Dequeued: q.totalDequeued,
		Rejected: q.rejected,
	}
}
