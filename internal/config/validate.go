package config

import (
	"errors"
	"fmt"

	"tradebridge/internal/model"
)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
var validLogFormats = map[string]bool{"json": true, "text": true}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Gateway.RestURL == "" {
		return errors.New("gateway.rest_url is required")
	}
	if c.Gateway.WSURL == "" {
		return errors.New("gateway.ws_url is required")
	}
	if c.Gateway.Token == "" {
		return errors.New("gateway.token is required")
	}

	if c.Stream.BackoffBase > c.Stream.BackoffMax {
		return fmt.Errorf("stream.backoff_base (%v) cannot exceed backoff_max (%v)",
			c.Stream.BackoffBase, c.Stream.BackoffMax)
	}

	for _, entry := range c.Subscriptions.OrderBooks {
		if _, err := model.ParseInstrument(entry); err != nil {
			return fmt.Errorf("subscriptions.orderbooks: %w", err)
		}
	}
	if c.Subscriptions.IncludeTrades || c.Subscriptions.IncludeOrders {
		if len(c.Subscriptions.ClientIDs) == 0 {
			return errors.New("subscriptions.client_ids is required when trades or orders are included")
		}
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Journal.BatchSize < 1 {
		return errors.New("journal.batch_size must be >= 1")
	}

	if c.Feed.Enabled {
		if c.Feed.URL == "" {
			return errors.New("feed.url is required when the feed is enabled")
		}
		if len(c.Feed.Boards) == 0 {
			return errors.New("feed.boards is required when the feed is enabled")
		}
		if c.Feed.Concurrency < 1 {
			return errors.New("feed.concurrency must be >= 1")
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return errors.New("kafka.topic is required when kafka is enabled")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
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
