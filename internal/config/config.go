package config

import "time"

// Config is the root configuration for a footprint engine instance.
type Config struct {
	Instrument  InstrumentConfig  `yaml:"instrument"`
	Feed        FeedConfig        `yaml:"feed"`
	Database    DBConfig          `yaml:"database"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Persist     PersistConfig     `yaml:"persist"`
	Stream      StreamConfig      `yaml:"stream"`
	Server      ServerConfig      `yaml:"server"`
}

// InstrumentConfig identifies the instrument being aggregated.
type InstrumentConfig struct {
	Symbol       string `yaml:"symbol"`        // Store key (e.g., "NIFTY-FUT")
	Token        string `yaml:"token"`         // Feed subscription token
	ExchangeType int    `yaml:"exchange_type"` // Feed exchange segment
}

// FeedConfig holds quote-feed connection settings.
type FeedConfig struct {
	URL                string        `yaml:"url"`
	CorrelationID      string        `yaml:"correlation_id"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// AggregationConfig holds the initial aggregation parameters. Interval and
// tick size stay mutable at runtime through the config endpoint.
type AggregationConfig struct {
	IntervalMinutes int     `yaml:"interval_minutes"`
	TickSize        float64 `yaml:"tick_size"`
	LotSize         float64 `yaml:"lot_size"`
	Timezone        string  `yaml:"timezone"` // IANA name, reference zone for bucketing
}

// PersistConfig holds persist worker settings.
type PersistConfig struct {
	QueueSize     int           `yaml:"queue_size"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// StreamConfig holds viewer streaming settings.
type StreamConfig struct {
	ViewerQueueSize int           `yaml:"viewer_queue_size"`
	Heartbeat       time.Duration `yaml:"heartbeat"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}
