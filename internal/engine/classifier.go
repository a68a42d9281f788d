package engine

import (
	"github.com/rickgao/footprint-data/internal/model"
)

// Classifier infers aggressor side and lot-denominated trade size from
// consecutive cumulative-volume observations.
//
// The tie-break on an unchanged price is deliberate: a trade that prints at
// the same price as the previous one inherits the last known direction.
// Trades with no established direction, and zero-sized trades, are skipped.
type Classifier struct {
	lotSize float64

	hasBaseline   bool
	prevVolume    int64
	prevPrice     float64
	prevDirection model.Direction
}

// NewClassifier creates a classifier with the given lot-size divisor.
func NewClassifier(lotSize float64) *Classifier {
	return &Classifier{lotSize: lotSize}
}

// Observe processes one tick against the current baseline. It returns the
// classified trade and true when a tradable event occurred.
func (c *Classifier) Observe(tick model.Tick) (model.Trade, bool) {
	// First observation after start or reset only establishes the baseline.
	if !c.hasBaseline {
		c.rebase(tick)
		return model.Trade{}, false
	}

	// Cumulative volume decreased: a new trading session began upstream.
	// Rebase rather than emit a negative trade.
	if tick.CumulativeVolume < c.prevVolume {
		c.rebase(tick)
		return model.Trade{}, false
	}

	// Unchanged cumulative volume means no trade occurred; the baseline
	// is left untouched.
	if tick.CumulativeVolume == c.prevVolume {
		return model.Trade{}, false
	}

	size := float64(tick.CumulativeVolume-c.prevVolume) / c.lotSize

	direction := c.prevDirection
	switch {
	case tick.Price > c.prevPrice:
		direction = model.DirectionBuy
	case tick.Price < c.prevPrice:
		direction = model.DirectionSell
	}

	c.prevVolume = tick.CumulativeVolume
	c.prevPrice = tick.Price
	c.prevDirection = direction

	if direction == model.DirectionUnknown || size <= 0 {
		return model.Trade{}, false
	}

	return model.Trade{
		Timestamp: tick.Timestamp,
		Price:     tick.Price,
		Size:      size,
		Direction: direction,
	}, true
}

// Reset discards the baseline. The next Observe only re-establishes it.
func (c *Classifier) Reset() {
	c.hasBaseline = false
	c.prevVolume = 0
	c.prevPrice = 0
	c.prevDirection = model.DirectionUnknown
}

func (c *Classifier) rebase(tick model.Tick) {
	c.hasBaseline = true
	c.prevVolume = tick.CumulativeVolume
	c.prevPrice = tick.Price
	c.prevDirection = model.DirectionUnknown
}
