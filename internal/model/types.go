package model

import (
	"math"
	"sort"
	"time"
)

// Direction is the inferred aggressor side of a trade.
type Direction string

const (
	// DirectionUnknown means no aggressor side has been established yet.
	DirectionUnknown Direction = ""

	// DirectionBuy means the trade lifted the ask.
	DirectionBuy Direction = "BUY"

	// DirectionSell means the trade hit the bid.
	DirectionSell Direction = "SELL"
)

// Tick is one raw observation from the quote feed. Ticks are ephemeral;
// they are classified into Trades and never persisted.
type Tick struct {
	Timestamp        time.Time // Event time
	Price            float64   // Last traded price
	CumulativeVolume int64     // Session cumulative traded volume (raw units)
}

// Trade is a classified trade derived from two consecutive Ticks.
type Trade struct {
	Timestamp time.Time
	Price     float64   // Last traded price (not yet tick-quantized)
	Size      float64   // Lot-denominated size, always > 0
	Direction Direction // Aggressor side, never DirectionUnknown
}

// PriceLevel accumulates buy/sell volume at one quantized price within a candle.
type PriceLevel struct {
	Price     float64 // Tick-size-quantized price
	BidVolume float64 // Sell-aggressor volume
	AskVolume float64 // Buy-aggressor volume
}

// Candle is one footprint bar: OHLC for a time bucket plus the per-price
// bid/ask volume breakdown. Levels is keyed by tick index (price / tickSize,
// rounded) so float prices never serve as map keys.
type Candle struct {
	BucketStart time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Levels      map[int64]*PriceLevel
}

// NewCandle creates a candle opened by its first trade at the given
// quantized price.
func NewCandle(bucketStart time.Time, price float64) *Candle {
	return &Candle{
		BucketStart: bucketStart,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
		Levels:      make(map[int64]*PriceLevel),
	}
}

// Apply folds one classified trade into the candle. price is the quantized
// level price and idx its tick index.
func (c *Candle) Apply(idx int64, price float64, t Trade) {
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price

	lvl, ok := c.Levels[idx]
	if !ok {
		lvl = &PriceLevel{Price: price}
		c.Levels[idx] = lvl
	}
	switch t.Direction {
	case DirectionBuy:
		lvl.AskVolume += t.Size
	case DirectionSell:
		lvl.BidVolume += t.Size
	}
}

// Clone returns a deep copy safe to hand off outside the engine's lock.
func (c *Candle) Clone() *Candle {
	cp := &Candle{
		BucketStart: c.BucketStart,
		Open:        c.Open,
		High:        c.High,
		Low:         c.Low,
		Close:       c.Close,
		Levels:      make(map[int64]*PriceLevel, len(c.Levels)),
	}
	for idx, lvl := range c.Levels {
		l := *lvl
		cp.Levels[idx] = &l
	}
	return cp
}

// LevelSnapshot is the wire form of one price level.
type LevelSnapshot struct {
	Price  float64 `json:"price"`
	BidVol float64 `json:"bidVol"`
	AskVol float64 `json:"askVol"`
}

// CandleSnapshot is the JSON-serializable view of a candle sent to viewers
// and returned by history queries. Levels are sorted descending by price.
type CandleSnapshot struct {
	Time   int64           `json:"time"` // Bucket start, epoch seconds
	Open   float64         `json:"open"`
	High   float64         `json:"high"`
	Low    float64         `json:"low"`
	Close  float64         `json:"close"`
	Levels []LevelSnapshot `json:"levels"`
}

// Snapshot builds the viewer-facing view of the candle.
func (c *Candle) Snapshot() CandleSnapshot {
	levels := make([]LevelSnapshot, 0, len(c.Levels))
	for _, lvl := range c.Levels {
		levels = append(levels, LevelSnapshot{
			Price:  lvl.Price,
			BidVol: lvl.BidVolume,
			AskVol: lvl.AskVolume,
		})
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Price > levels[j].Price
	})

	return CandleSnapshot{
		Time:   c.BucketStart.Unix(),
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Levels: levels,
	}
}

// TickIndex maps a price onto its discrete tick-size grid position.
func TickIndex(price, tickSize float64) int64 {
	return int64(math.Round(price / tickSize))
}

// Quantize rounds a price to the nearest multiple of tickSize. The result is
// stable under repeated application.
func Quantize(price, tickSize float64) float64 {
	return float64(TickIndex(price, tickSize)) * tickSize
}

// BucketStart floors a timestamp to its bucket within the hour: seconds and
// sub-second components are zeroed and the minute is rounded down to a
// multiple of intervalMinutes, all in the given location.
func BucketStart(ts time.Time, intervalMinutes int, loc *time.Location) time.Time {
	t := ts.In(loc)
	minute := (t.Minute() / intervalMinutes) * intervalMinutes
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, loc)
}
