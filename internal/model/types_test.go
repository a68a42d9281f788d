package model

import (
	"math"
	"testing"
	"time"
)

func TestQuantize(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		tickSize float64
		want     float64
	}{
		{"exact multiple", 100.00, 0.05, 100.00},
		{"round up", 100.06, 0.05, 100.05},
		{"round up to next", 100.08, 0.05, 100.10},
		{"round down", 100.02, 0.05, 100.00},
		{"coarse tick", 22504.0, 3.0, 22503.0},
		{"unit tick", 99.4, 1.0, 99.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantize(tt.price, tt.tickSize)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Quantize(%v, %v) = %v, want %v", tt.price, tt.tickSize, got, tt.want)
			}
		})
	}
}

func TestQuantize_Idempotent(t *testing.T) {
	for _, tick := range []float64{0.05, 0.5, 1, 3, 5} {
		for _, price := range []float64{99.97, 100.06, 22504.35, 17.5} {
			once := Quantize(price, tick)
			twice := Quantize(once, tick)
			if once != twice {
				t.Errorf("Quantize not stable for price=%v tick=%v: %v then %v", price, tick, once, twice)
			}
		}
	}
}

func TestBucketStart(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	tests := []struct {
		name     string
		ts       time.Time
		interval int
		want     time.Time
	}{
		{
			"floor within interval",
			time.Date(2024, 1, 15, 9, 15, 10, 0, loc),
			5,
			time.Date(2024, 1, 15, 9, 15, 0, 0, loc),
		},
		{
			"next interval",
			time.Date(2024, 1, 15, 9, 20, 5, 0, loc),
			5,
			time.Date(2024, 1, 15, 9, 20, 0, 0, loc),
		},
		{
			"three minute bucket",
			time.Date(2024, 1, 15, 9, 17, 59, 999, loc),
			3,
			time.Date(2024, 1, 15, 9, 15, 0, 0, loc),
		},
		{
			"on boundary",
			time.Date(2024, 1, 15, 9, 21, 0, 0, loc),
			3,
			time.Date(2024, 1, 15, 9, 21, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BucketStart(tt.ts, tt.interval, loc)
			if !got.Equal(tt.want) {
				t.Errorf("BucketStart(%v, %d) = %v, want %v", tt.ts, tt.interval, got, tt.want)
			}
		})
	}
}

func TestBucketStart_SameBucket(t *testing.T) {
	loc := time.UTC
	a := BucketStart(time.Date(2024, 1, 15, 9, 15, 10, 0, loc), 5, loc)
	b := BucketStart(time.Date(2024, 1, 15, 9, 19, 59, 0, loc), 5, loc)
	if !a.Equal(b) {
		t.Errorf("timestamps in the same window mapped to different buckets: %v vs %v", a, b)
	}
}

func TestCandle_Apply(t *testing.T) {
	start := time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC)
	c := NewCandle(start, 100.05)

	if c.Open != 100.05 || c.High != 100.05 || c.Low != 100.05 || c.Close != 100.05 {
		t.Fatalf("NewCandle OHLC = %v/%v/%v/%v, want all 100.05", c.Open, c.High, c.Low, c.Close)
	}

	buy := Trade{Price: 100.06, Size: 1, Direction: DirectionBuy}
	c.Apply(TickIndex(100.05, 0.05), 100.05, buy)

	sell := Trade{Price: 100.00, Size: 0.5, Direction: DirectionSell}
	c.Apply(TickIndex(100.00, 0.05), 100.00, sell)

	if c.High != 100.05 {
		t.Errorf("High = %v, want 100.05", c.High)
	}
	if c.Low != 100.00 {
		t.Errorf("Low = %v, want 100.00", c.Low)
	}
	if c.Close != 100.00 {
		t.Errorf("Close = %v, want 100.00", c.Close)
	}

	lvl := c.Levels[TickIndex(100.05, 0.05)]
	if lvl == nil || lvl.AskVolume != 1 || lvl.BidVolume != 0 {
		t.Errorf("level 100.05 = %+v, want askVol=1 bidVol=0", lvl)
	}
	lvl = c.Levels[TickIndex(100.00, 0.05)]
	if lvl == nil || lvl.BidVolume != 0.5 || lvl.AskVolume != 0 {
		t.Errorf("level 100.00 = %+v, want bidVol=0.5 askVol=0", lvl)
	}
}

func TestCandle_Snapshot_LevelsDescending(t *testing.T) {
	start := time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC)
	c := NewCandle(start, 100.00)
	for _, p := range []float64{100.00, 100.10, 99.95, 100.05} {
		c.Apply(TickIndex(p, 0.05), p, Trade{Price: p, Size: 1, Direction: DirectionBuy})
	}

	snap := c.Snapshot()
	if snap.Time != start.Unix() {
		t.Errorf("Time = %d, want %d", snap.Time, start.Unix())
	}
	if len(snap.Levels) != 4 {
		t.Fatalf("len(Levels) = %d, want 4", len(snap.Levels))
	}
	for i := 1; i < len(snap.Levels); i++ {
		if snap.Levels[i].Price >= snap.Levels[i-1].Price {
			t.Errorf("levels not descending at %d: %v >= %v", i, snap.Levels[i].Price, snap.Levels[i-1].Price)
		}
	}
}

func TestCandle_Clone_Independent(t *testing.T) {
	start := time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC)
	c := NewCandle(start, 100.00)
	c.Apply(TickIndex(100.00, 0.05), 100.00, Trade{Size: 1, Direction: DirectionBuy})

	cp := c.Clone()
	c.Apply(TickIndex(100.00, 0.05), 100.00, Trade{Size: 2, Direction: DirectionBuy})

	if got := cp.Levels[TickIndex(100.00, 0.05)].AskVolume; got != 1 {
		t.Errorf("clone askVol = %v, want 1 (mutation leaked through)", got)
	}
}
