package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instrument.Symbol == "" {
		return errors.New("instrument.symbol is required")
	}
	if c.Instrument.Token == "" {
		return errors.New("instrument.token is required")
	}

	if c.Feed.URL == "" {
		return errors.New("feed.url is required")
	}
	if c.Feed.BufferSize < 1 {
		return errors.New("feed.buffer_size must be >= 1")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Aggregation.IntervalMinutes < 1 {
		return errors.New("aggregation.interval_minutes must be >= 1")
	}
	if c.Aggregation.TickSize <= 0 {
		return errors.New("aggregation.tick_size must be > 0")
	}
	if c.Aggregation.LotSize <= 0 {
		return errors.New("aggregation.lot_size must be > 0")
	}
	if _, err := time.LoadLocation(c.Aggregation.Timezone); err != nil {
		return fmt.Errorf("aggregation.timezone %q is not a valid IANA name: %w", c.Aggregation.Timezone, err)
	}

	if c.Persist.QueueSize < 1 {
		return errors.New("persist.queue_size must be >= 1")
	}

	if c.Stream.ViewerQueueSize < 1 {
		return errors.New("stream.viewer_queue_size must be >= 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
