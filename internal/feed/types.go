package feed

import (
	"errors"
	"time"
)

// Errors
var (
	ErrStaleConnection = errors.New("quote feed stale (no traffic)")
	ErrNotQuote        = errors.New("not a full-quote event")
)

// Full-quote subscription mode on the feed. Events in any other mode carry
// no trade information and are skipped.
const quoteMode = 2

// TimestampedMessage wraps raw message bytes with the receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// quoteEvent is the wire form of one feed event. Prices are fixed-point
// with two implied decimal places.
type quoteEvent struct {
	SubscriptionMode    int   `json:"subscription_mode"`
	ExchangeTimestamp   int64 `json:"exchange_timestamp"`    // ms since epoch
	LastTradedTimestamp int64 `json:"last_traded_timestamp"` // seconds since epoch
	LastTradedPrice     int64 `json:"last_traded_price"`     // price * 100
	LastTradedQuantity  int64 `json:"last_traded_quantity"`
	VolumeTradedToday   int64 `json:"volume_trade_for_the_day"`
}

// subscribeCommand is sent once per connection to start the quote stream.
type subscribeCommand struct {
	CorrelationID string          `json:"correlationID"`
	Action        int             `json:"action"`
	Params        subscribeParams `json:"params"`
}

type subscribeParams struct {
	Mode      int         `json:"mode"`
	TokenList []tokenList `json:"tokenList"`
}

type tokenList struct {
	ExchangeType int      `json:"exchangeType"`
	Tokens       []string `json:"tokens"`
}

const subscribeAction = 1

// ConnConfig configures a single feed session. Zero fields other than URL
// receive defaults in Dial.
type ConnConfig struct {
	URL          string        // WebSocket URL of the quote feed
	PingTimeout  time.Duration // Max silence before the session is declared stale
	WriteTimeout time.Duration // Write deadline for outbound frames
	BufferSize   int           // Quote event channel capacity
}

// ManagerConfig configures the feed manager.
type ManagerConfig struct {
	URL                string        // WebSocket URL of the quote feed
	CorrelationID      string        // Subscription correlation identifier
	ExchangeType       int           // Exchange segment of the instrument
	Token              string        // Instrument token to subscribe
	ReconnectBaseDelay time.Duration // First reconnect wait
	ReconnectMaxDelay  time.Duration // Backoff ceiling
	PingTimeout        time.Duration
	WriteTimeout       time.Duration
	BufferSize         int // Tick channel capacity
}
