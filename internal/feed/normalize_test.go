package feed

import (
	"testing"
	"time"
)

func TestNormalizer_QuoteEvent(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	n := NewNormalizer(loc)

	msg := TimestampedMessage{
		Data: []byte(`{
			"subscription_mode": 2,
			"last_traded_timestamp": 1705310700,
			"last_traded_price": 2250435,
			"last_traded_quantity": 75,
			"volume_trade_for_the_day": 123450
		}`),
		ReceivedAt: time.Now(),
	}

	tick, ok, err := n.Normalize(msg)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !ok {
		t.Fatal("quote event skipped")
	}

	if tick.Price != 22504.35 {
		t.Errorf("Price = %v, want 22504.35", tick.Price)
	}
	if tick.CumulativeVolume != 123450 {
		t.Errorf("CumulativeVolume = %d, want 123450", tick.CumulativeVolume)
	}
	if !tick.Timestamp.Equal(time.Unix(1705310700, 0)) {
		t.Errorf("Timestamp = %v, want %v", tick.Timestamp, time.Unix(1705310700, 0))
	}
	if tick.Timestamp.Location() != loc {
		t.Errorf("Timestamp location = %v, want %v", tick.Timestamp.Location(), loc)
	}
}

func TestNormalizer_SkipsNonQuoteModes(t *testing.T) {
	n := NewNormalizer(time.UTC)

	for _, mode := range []int{0, 1, 3} {
		msg := TimestampedMessage{
			Data: []byte(`{"subscription_mode": ` + string(rune('0'+mode)) + `, "last_traded_price": 100}`),
		}
		_, ok, err := n.Normalize(msg)
		if err != nil {
			t.Errorf("mode %d: unexpected error %v", mode, err)
		}
		if ok {
			t.Errorf("mode %d event not skipped", mode)
		}
	}
}

func TestNormalizer_MalformedPayload(t *testing.T) {
	n := NewNormalizer(time.UTC)

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"zero price", `{"subscription_mode": 2, "last_traded_price": 0}`},
		{"negative price", `{"subscription_mode": 2, "last_traded_price": -100}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := n.Normalize(TimestampedMessage{Data: []byte(tt.data)}); err == nil {
				t.Error("Normalize returned nil error for malformed payload")
			}
		})
	}
}

func TestNormalizer_FallsBackToReceiveTime(t *testing.T) {
	n := NewNormalizer(time.UTC)
	receivedAt := time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC)

	msg := TimestampedMessage{
		Data:       []byte(`{"subscription_mode": 2, "last_traded_price": 10050, "volume_trade_for_the_day": 10}`),
		ReceivedAt: receivedAt,
	}

	tick, ok, err := n.Normalize(msg)
	if err != nil || !ok {
		t.Fatalf("Normalize = ok=%v err=%v, want tick", ok, err)
	}
	if !tick.Timestamp.Equal(receivedAt) {
		t.Errorf("Timestamp = %v, want receive time %v", tick.Timestamp, receivedAt)
	}
}
