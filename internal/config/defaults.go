package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultCorrelationID      = "footprint"
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultFeedBufferSize     = 1000
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultIntervalMinutes    = 3
	DefaultTickSize           = 0.05
	DefaultLotSize            = 75
	DefaultTimezone           = "Asia/Kolkata"
	DefaultPersistQueueSize   = 1024
	DefaultRetryInterval      = 5 * time.Second
	DefaultViewerQueueSize    = 64
	DefaultHeartbeat          = 15 * time.Second
	DefaultServerPort         = 5000
)

func (c *Config) applyDefaults() {
	// Feed defaults
	if c.Feed.CorrelationID == "" {
		c.Feed.CorrelationID = DefaultCorrelationID
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = DefaultPingTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Aggregation defaults
	if c.Aggregation.IntervalMinutes == 0 {
		c.Aggregation.IntervalMinutes = DefaultIntervalMinutes
	}
	if c.Aggregation.TickSize == 0 {
		c.Aggregation.TickSize = DefaultTickSize
	}
	if c.Aggregation.LotSize == 0 {
		c.Aggregation.LotSize = DefaultLotSize
	}
	if c.Aggregation.Timezone == "" {
		c.Aggregation.Timezone = DefaultTimezone
	}

	// Persist defaults
	if c.Persist.QueueSize == 0 {
		c.Persist.QueueSize = DefaultPersistQueueSize
	}
	if c.Persist.RetryInterval == 0 {
		c.Persist.RetryInterval = DefaultRetryInterval
	}

	// Stream defaults
	if c.Stream.ViewerQueueSize == 0 {
		c.Stream.ViewerQueueSize = DefaultViewerQueueSize
	}
	if c.Stream.Heartbeat == 0 {
		c.Stream.Heartbeat = DefaultHeartbeat
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
}
