package engine

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/footprint-data/internal/model"
)

// Errors returned by SetConfig.
var (
	ErrInvalidInterval = errors.New("interval minutes must be > 0")
	ErrInvalidTickSize = errors.New("tick size must be > 0")
)

// Persister receives sealed candles for durable storage. Implementations
// must not block: persistence runs off the ingest path.
type Persister interface {
	Persist(candle *model.Candle)
}

// Publisher receives live candle snapshots for viewer delivery and drops
// any pending backlog on Reset. Implementations must not block.
type Publisher interface {
	Publish(snapshot model.CandleSnapshot)
	Reset()
}

// Config holds the aggregation parameters.
type Config struct {
	IntervalMinutes int            // Bucket duration
	TickSize        float64        // Price quantization unit
	LotSize         float64        // Raw volume units per lot
	Location        *time.Location // Reference timezone for bucketing
}

// Stats contains engine counters.
type Stats struct {
	TicksObserved    int64
	TradesAggregated int64
	CandlesSealed    int64
}

// Engine aggregates classified trades into footprint candles, one per time
// bucket. A bucket seals when a trade arrives whose bucket key is absent
// from the map, never by wall clock; correctness therefore assumes the feed
// is monotonic in time. A trade for an already-known older bucket updates
// that bucket in place without sealing anything.
//
// All state is guarded by one mutex spanning classification through
// dispatch-enqueue, so ingestion, reconfiguration, and history reads are
// serialized.
type Engine struct {
	mu         sync.Mutex
	cfg        Config
	classifier *Classifier
	candles    map[int64]*model.Candle
	current    int64 // Unix seconds of the open bucket, 0 when none

	persister Persister
	publisher Publisher
	logger    *slog.Logger
	stats     Stats
}

// New creates an engine. persister and publisher must be non-nil.
func New(cfg Config, persister Persister, publisher Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{
		cfg:        cfg,
		classifier: NewClassifier(cfg.LotSize),
		candles:    make(map[int64]*model.Candle),
		persister:  persister,
		publisher:  publisher,
		logger:     logger,
	}
}

// Ingest classifies one tick and, when a trade occurred, folds it into its
// bucket's candle, sealing the previously open bucket on rollover and
// publishing a live snapshot of the updated bucket.
func (e *Engine) Ingest(tick model.Tick) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.TicksObserved++

	trade, ok := e.classifier.Observe(tick)
	if !ok {
		return
	}

	idx := model.TickIndex(trade.Price, e.cfg.TickSize)
	level := float64(idx) * e.cfg.TickSize
	bucket := model.BucketStart(trade.Timestamp, e.cfg.IntervalMinutes, e.cfg.Location)
	key := bucket.Unix()

	candle, exists := e.candles[key]
	if !exists {
		// Unseen bucket: the open bucket, if any, is now sealed. Each
		// bucket is sealed at most once because sealing only happens
		// here, when a new key replaces it as current.
		if e.current != 0 {
			e.seal(e.current)
		}
		candle = model.NewCandle(bucket, level)
		e.candles[key] = candle
		e.current = key
	}

	candle.Apply(idx, level, trade)
	e.stats.TradesAggregated++

	e.logger.Debug("trade aggregated",
		"bucket", bucket.Format("15:04"),
		"price", level,
		"size", trade.Size,
		"direction", trade.Direction,
	)

	e.publisher.Publish(candle.Snapshot())
}

// seal hands the candle at key to the persister. Caller holds e.mu.
func (e *Engine) seal(key int64) {
	candle, ok := e.candles[key]
	if !ok {
		return
	}
	e.stats.CandlesSealed++
	e.logger.Info("bucket sealed",
		"bucket", candle.BucketStart.Format(time.RFC3339),
		"close", candle.Close,
		"levels", len(candle.Levels),
	)
	e.persister.Persist(candle.Clone())
}

// SetConfig atomically applies a new interval and tick size, clearing all
// in-memory candle state, the classifier baseline, and any pending viewer
// backlog. Persisted candles are unaffected. Invalid values are rejected
// and the previous configuration is retained.
func (e *Engine) SetConfig(intervalMinutes int, tickSize float64) error {
	if intervalMinutes <= 0 {
		return ErrInvalidInterval
	}
	if tickSize <= 0 {
		return ErrInvalidTickSize
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg.IntervalMinutes = intervalMinutes
	e.cfg.TickSize = tickSize
	e.candles = make(map[int64]*model.Candle)
	e.current = 0
	e.classifier.Reset()
	e.publisher.Reset()

	e.logger.Info("aggregation reconfigured",
		"interval_minutes", intervalMinutes,
		"tick_size", tickSize,
	)
	return nil
}

// Settings returns the current interval and tick size.
func (e *Engine) Settings() (intervalMinutes int, tickSize float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.IntervalMinutes, e.cfg.TickSize
}

// History returns snapshots of all completed candles in ascending bucket
// order. The still-open bucket is excluded.
func (e *Engine) History() []model.CandleSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([]int64, 0, len(e.candles))
	for key := range e.candles {
		if key == e.current {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]model.CandleSnapshot, 0, len(keys))
	for _, key := range keys {
		out = append(out, e.candles[key].Snapshot())
	}
	return out
}

// Hydrate seeds the in-memory map with previously persisted candles. All
// hydrated candles are treated as completed; none becomes the open bucket.
// Intended for startup, before the feed is connected.
func (e *Engine) Hydrate(candles []*model.Candle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range candles {
		e.candles[c.BucketStart.Unix()] = c
	}
	e.logger.Info("state hydrated", "candles", len(candles))
}

// Stats returns current counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
