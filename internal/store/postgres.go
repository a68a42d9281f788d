package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/footprint-data/internal/model"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS footprint_candles (
		instrument TEXT        NOT NULL,
		bucket_ts  BIGINT      NOT NULL,
		open       DOUBLE PRECISION NOT NULL,
		high       DOUBLE PRECISION NOT NULL,
		low        DOUBLE PRECISION NOT NULL,
		close      DOUBLE PRECISION NOT NULL,
		levels     JSONB       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (instrument, bucket_ts)
	)`

const upsertSQL = `
	INSERT INTO footprint_candles (instrument, bucket_ts, open, high, low, close, levels, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (instrument, bucket_ts) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		levels = EXCLUDED.levels,
		updated_at = now()`

const loadAllSQL = `
	SELECT bucket_ts, open, high, low, close, levels
	FROM footprint_candles
	WHERE instrument = $1
	ORDER BY bucket_ts ASC`

// Store persists completed candles keyed by (instrument, bucket timestamp).
// Save is an idempotent upsert; overwriting an existing bucket is correct.
type Store interface {
	Save(ctx context.Context, candle *model.Candle) error
	LoadAll(ctx context.Context, tickSize float64) ([]*model.Candle, error)
}

// Postgres is the pgx-backed Store for one instrument.
type Postgres struct {
	db         *pgxpool.Pool
	instrument string
	loc        *time.Location
}

// NewPostgres creates a Postgres store.
func NewPostgres(db *pgxpool.Pool, instrument string, loc *time.Location) *Postgres {
	if loc == nil {
		loc = time.UTC
	}
	return &Postgres{db: db, instrument: instrument, loc: loc}
}

// Init creates the candles table if it does not exist.
func (s *Postgres) Init(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create footprint_candles: %w", err)
	}
	return nil
}

// Save upserts one candle.
func (s *Postgres) Save(ctx context.Context, candle *model.Candle) error {
	levels, err := marshalLevels(candle)
	if err != nil {
		return fmt.Errorf("encode levels: %w", err)
	}

	_, err = s.db.Exec(ctx, upsertSQL,
		s.instrument,
		candle.BucketStart.Unix(),
		candle.Open,
		candle.High,
		candle.Low,
		candle.Close,
		levels,
	)
	if err != nil {
		return fmt.Errorf("upsert candle %d: %w", candle.BucketStart.Unix(), err)
	}
	return nil
}

// LoadAll returns all persisted candles for the instrument in ascending
// bucket order. tickSize rebuilds the level map keys for the in-memory
// representation.
func (s *Postgres) LoadAll(ctx context.Context, tickSize float64) ([]*model.Candle, error) {
	rows, err := s.db.Query(ctx, loadAllSQL, s.instrument)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var out []*model.Candle
	for rows.Next() {
		var (
			bucketTS   int64
			o, h, l, c float64
			levels     []byte
		)
		if err := rows.Scan(&bucketTS, &o, &h, &l, &c, &levels); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}

		candle := &model.Candle{
			BucketStart: time.Unix(bucketTS, 0).In(s.loc),
			Open:        o,
			High:        h,
			Low:         l,
			Close:       c,
			Levels:      make(map[int64]*model.PriceLevel),
		}
		if err := unmarshalLevels(levels, candle, tickSize); err != nil {
			return nil, fmt.Errorf("decode levels for %d: %w", bucketTS, err)
		}
		out = append(out, candle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read candles: %w", err)
	}
	return out, nil
}

func marshalLevels(candle *model.Candle) ([]byte, error) {
	return json.Marshal(candle.Snapshot().Levels)
}

func unmarshalLevels(data []byte, candle *model.Candle, tickSize float64) error {
	var levels []model.LevelSnapshot
	if err := json.Unmarshal(data, &levels); err != nil {
		return err
	}
	for _, lvl := range levels {
		candle.Levels[model.TickIndex(lvl.Price, tickSize)] = &model.PriceLevel{
			Price:     lvl.Price,
			BidVolume: lvl.BidVol,
			AskVolume: lvl.AskVol,
		}
	}
	return nil
}
