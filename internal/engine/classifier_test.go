package engine

import (
	"testing"
	"time"

	"github.com/rickgao/footprint-data/internal/model"
)

func tick(vol int64, price float64) model.Tick {
	return model.Tick{
		Timestamp:        time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC),
		Price:            price,
		CumulativeVolume: vol,
	}
}

func TestClassifier_FirstObservationIsBaseline(t *testing.T) {
	c := NewClassifier(10)

	if _, ok := c.Observe(tick(100, 100.00)); ok {
		t.Error("first observation emitted a trade, want baseline only")
	}
}

func TestClassifier_BuySellSequence(t *testing.T) {
	c := NewClassifier(10)
	c.Observe(tick(100, 100.00))

	trade, ok := c.Observe(tick(110, 100.06))
	if !ok {
		t.Fatal("expected a trade for increased volume")
	}
	if trade.Direction != model.DirectionBuy {
		t.Errorf("Direction = %s, want BUY", trade.Direction)
	}
	if trade.Size != 1 {
		t.Errorf("Size = %v, want 1", trade.Size)
	}
	if trade.Price != 100.06 {
		t.Errorf("Price = %v, want 100.06", trade.Price)
	}

	trade, ok = c.Observe(tick(115, 100.00))
	if !ok {
		t.Fatal("expected a trade for increased volume")
	}
	if trade.Direction != model.DirectionSell {
		t.Errorf("Direction = %s, want SELL", trade.Direction)
	}
	if trade.Size != 0.5 {
		t.Errorf("Size = %v, want 0.5", trade.Size)
	}
}

func TestClassifier_UnchangedVolumeEmitsNothing(t *testing.T) {
	c := NewClassifier(10)
	c.Observe(tick(100, 100.00))
	c.Observe(tick(110, 100.05))

	if _, ok := c.Observe(tick(110, 100.10)); ok {
		t.Error("unchanged volume emitted a trade")
	}

	// Baseline price must be untouched by the no-trade tick: the next
	// increase compares against 100.05, not 100.10.
	trade, ok := c.Observe(tick(120, 100.10))
	if !ok {
		t.Fatal("expected a trade")
	}
	if trade.Direction != model.DirectionBuy {
		t.Errorf("Direction = %s, want BUY (vs retained baseline price)", trade.Direction)
	}
}

func TestClassifier_UnchangedPriceInheritsDirection(t *testing.T) {
	c := NewClassifier(10)
	c.Observe(tick(100, 100.00))

	trade, ok := c.Observe(tick(110, 99.95))
	if !ok || trade.Direction != model.DirectionSell {
		t.Fatalf("setup trade = %+v ok=%v, want SELL", trade, ok)
	}

	trade, ok = c.Observe(tick(120, 99.95))
	if !ok {
		t.Fatal("expected a trade at unchanged price")
	}
	if trade.Direction != model.DirectionSell {
		t.Errorf("Direction = %s, want inherited SELL", trade.Direction)
	}
}

func TestClassifier_NoDirectionYetSkipsTrade(t *testing.T) {
	c := NewClassifier(10)
	c.Observe(tick(100, 100.00))

	// Volume increased but price is unchanged and no prior direction
	// exists, so the trade is skipped. The baseline still advances.
	if _, ok := c.Observe(tick(110, 100.00)); ok {
		t.Error("trade emitted with no established direction")
	}

	trade, ok := c.Observe(tick(120, 100.05))
	if !ok {
		t.Fatal("expected a trade")
	}
	if trade.Size != 1 {
		t.Errorf("Size = %v, want 1 (baseline advanced past skipped trade)", trade.Size)
	}
}

func TestClassifier_VolumeDecreaseRebases(t *testing.T) {
	c := NewClassifier(10)
	c.Observe(tick(100, 100.00))
	c.Observe(tick(110, 100.05))

	if _, ok := c.Observe(tick(20, 99.00)); ok {
		t.Error("session reset emitted a trade")
	}

	// Direction history is gone after the reset, so an unchanged-price
	// trade right after it must be skipped.
	if _, ok := c.Observe(tick(30, 99.00)); ok {
		t.Error("trade emitted with direction from before session reset")
	}

	trade, ok := c.Observe(tick(40, 99.10))
	if !ok {
		t.Fatal("expected a trade after rebase")
	}
	if trade.Direction != model.DirectionBuy || trade.Size != 1 {
		t.Errorf("trade = %+v, want BUY size 1", trade)
	}
}

func TestClassifier_Reset(t *testing.T) {
	c := NewClassifier(10)
	c.Observe(tick(100, 100.00))
	c.Reset()

	if _, ok := c.Observe(tick(200, 105.00)); ok {
		t.Error("observation after Reset emitted a trade, want baseline only")
	}
}
