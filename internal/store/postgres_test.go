package store

import (
	"testing"
	"time"

	"github.com/rickgao/footprint-data/internal/model"
)

func TestLevels_RoundTrip(t *testing.T) {
	const tickSize = 0.05

	candle := model.NewCandle(time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC), 100.00)
	for _, tr := range []struct {
		price float64
		size  float64
		dir   model.Direction
	}{
		{100.00, 1.5, model.DirectionBuy},
		{100.05, 0.5, model.DirectionSell},
		{99.95, 2, model.DirectionSell},
		{100.05, 3, model.DirectionBuy},
	} {
		lvl := model.Quantize(tr.price, tickSize)
		candle.Apply(model.TickIndex(tr.price, tickSize), lvl, model.Trade{
			Price: tr.price, Size: tr.size, Direction: tr.dir,
		})
	}

	data, err := marshalLevels(candle)
	if err != nil {
		t.Fatalf("marshalLevels: %v", err)
	}

	restored := &model.Candle{
		BucketStart: candle.BucketStart,
		Levels:      make(map[int64]*model.PriceLevel),
	}
	if err := unmarshalLevels(data, restored, tickSize); err != nil {
		t.Fatalf("unmarshalLevels: %v", err)
	}

	if len(restored.Levels) != len(candle.Levels) {
		t.Fatalf("restored %d levels, want %d", len(restored.Levels), len(candle.Levels))
	}
	for idx, want := range candle.Levels {
		got, ok := restored.Levels[idx]
		if !ok {
			t.Errorf("level index %d missing after round trip", idx)
			continue
		}
		if got.Price != want.Price || got.BidVolume != want.BidVolume || got.AskVolume != want.AskVolume {
			t.Errorf("level %d = %+v, want %+v", idx, got, want)
		}
	}
}

func TestLevels_MarshalOrderedDescending(t *testing.T) {
	candle := model.NewCandle(time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC), 100.00)
	for _, price := range []float64{99.95, 100.10, 100.00} {
		candle.Apply(model.TickIndex(price, 0.05), price, model.Trade{Size: 1, Direction: model.DirectionBuy})
	}

	data, err := marshalLevels(candle)
	if err != nil {
		t.Fatalf("marshalLevels: %v", err)
	}

	restored := &model.Candle{Levels: make(map[int64]*model.PriceLevel)}
	if err := unmarshalLevels(data, restored, 0.05); err != nil {
		t.Fatalf("unmarshalLevels: %v", err)
	}
	if len(restored.Levels) != 3 {
		t.Errorf("restored %d levels, want 3", len(restored.Levels))
	}
}
