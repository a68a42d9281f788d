package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rickgao/footprint-data/internal/model"
)

// Normalizer converts raw feed messages into canonical Ticks, expressing
// event timestamps in the reference timezone. Non-quote events and events
// without a trade timestamp are skipped, malformed payloads are errors.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer creates a normalizer for the given reference timezone.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Normalize parses one raw message. The bool result is false for valid
// messages that simply carry no trade data.
func (n *Normalizer) Normalize(msg TimestampedMessage) (model.Tick, bool, error) {
	var ev quoteEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return model.Tick{}, false, fmt.Errorf("parse quote event: %w", err)
	}

	if ev.SubscriptionMode != quoteMode {
		return model.Tick{}, false, nil
	}
	if ev.LastTradedPrice <= 0 {
		return model.Tick{}, false, fmt.Errorf("non-positive price %d: %w", ev.LastTradedPrice, ErrNotQuote)
	}

	ts := msg.ReceivedAt
	if ev.LastTradedTimestamp > 0 {
		ts = time.Unix(ev.LastTradedTimestamp, 0)
	}

	return model.Tick{
		Timestamp:        ts.In(n.loc),
		Price:            float64(ev.LastTradedPrice) / 100,
		CumulativeVolume: ev.VolumeTradedToday,
	}, true, nil
}
