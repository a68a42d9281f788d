package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/footprint-data/internal/model"
)

// WorkerConfig holds persist worker settings.
type WorkerConfig struct {
	QueueSize     int           // Sealed-candle queue capacity
	RetryInterval time.Duration // Wait between failed save attempts
}

// DefaultWorkerConfig returns sensible defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		QueueSize:     1024,
		RetryInterval: 5 * time.Second,
	}
}

// WorkerMetrics contains persist worker counters.
type WorkerMetrics struct {
	Saved   int64
	Retries int64
	Errors  int64
	Dropped int64
}

// Worker persists sealed candles off the ingest path. The engine hands off
// through Persist, which only enqueues; a single goroutine drains the queue
// and retries failed saves until they succeed or the worker stops. Because
// Save is an upsert, retrying a candle that already landed is harmless.
type Worker struct {
	cfg    WorkerConfig
	store  Store
	logger *slog.Logger

	queue *Queue

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	metrics WorkerMetrics
}

// NewWorker creates a persist worker.
func NewWorker(cfg WorkerConfig, store Store, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	return &Worker{
		cfg:    cfg,
		store:  store,
		logger: logger,
		queue:  NewQueue(cfg.QueueSize),
	}
}

// Persist enqueues a sealed candle for durable storage. Never blocks; when
// the queue is full (the database has been unreachable long enough to back
// up the queue) the candle is dropped and counted.
func (w *Worker) Persist(candle *model.Candle) {
	if w.queue.Send(candle) {
		return
	}
	w.mu.Lock()
	w.metrics.Dropped++
	w.mu.Unlock()
	w.logger.Error("persist queue full, dropping sealed candle",
		"bucket", candle.BucketStart.Format(time.RFC3339),
	)
}

// Start begins draining the queue.
func (w *Worker) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.persistLoop()

	w.logger.Info("persist worker started",
		"queue_size", w.cfg.QueueSize,
		"retry_interval", w.cfg.RetryInterval,
	)
	return nil
}

// Stop shuts the worker down, attempting one final save of anything still
// queued.
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("stopping persist worker")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("persist worker stop timed out")
		return nil
	}

	w.queue.Close()
	for _, candle := range w.queue.Drain() {
		if err := w.save(ctx, candle); err != nil {
			w.logger.Error("final save failed", "error", err,
				"bucket", candle.BucketStart.Format(time.RFC3339),
			)
		}
	}

	w.logger.Info("persist worker stopped")
	return nil
}

// Metrics returns current counters.
func (w *Worker) Metrics() WorkerMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// QueueStats returns the underlying queue counters.
func (w *Worker) QueueStats() QueueStats {
	return w.queue.Stats()
}

// persistLoop drains the queue, retrying each candle until saved. An empty
// queue blocks on the queue's ready signal rather than polling.
func (w *Worker) persistLoop() {
	defer w.wg.Done()

	for {
		candle, ok := w.queue.TryReceive()
		if !ok {
			select {
			case <-w.ctx.Done():
				return
			case <-w.queue.Ready():
				continue
			}
		}

		for {
			err := w.save(w.ctx, candle)
			if err == nil {
				break
			}

			w.mu.Lock()
			w.metrics.Errors++
			w.mu.Unlock()
			w.logger.Error("save failed, will retry",
				"error", err,
				"bucket", candle.BucketStart.Format(time.RFC3339),
			)

			select {
			case <-w.ctx.Done():
				return
			case <-time.After(w.cfg.RetryInterval):
			}

			w.mu.Lock()
			w.metrics.Retries++
			w.mu.Unlock()
		}
	}
}

func (w *Worker) save(ctx context.Context, candle *model.Candle) error {
	if err := w.store.Save(ctx, candle); err != nil {
		return err
	}
	w.mu.Lock()
	w.metrics.Saved++
	w.mu.Unlock()
	return nil
}
