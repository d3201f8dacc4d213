package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultGatewayTimeout = 10 * time.Second

	DefaultBackoffBase       = 1 * time.Second
	DefaultBackoffMax        = 60 * time.Second
	DefaultMaxAttempts       = 10
	DefaultOrderBookDepth    = 10
	DefaultQueueSize         = 1024
	DefaultKeepAliveInterval = 45 * time.Second
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultWriteTimeout      = 5 * time.Second

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultBatchSize      = 500
	DefaultFlushInterval  = 1 * time.Second
	DefaultBookQueueSize  = 4096
	DefaultTradeQueueSize = 1024
	DefaultOrderQueueSize = 1024

	DefaultSyncInterval = 1 * time.Hour

	DefaultFeedInterval    = 5 * time.Second
	DefaultFeedConcurrency = 4
	DefaultFeedTimeout     = 5 * time.Second
	DefaultFeedMaxRetries  = 3

	DefaultKafkaTopic = "tradebridge.events"

	DefaultRedisTTL = 5 * time.Minute

	DefaultHealthPort = 8080
	DefaultHealthPath = "/healthz"

	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

func (c *Config) applyDefaults() {
	// Gateway defaults
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = DefaultGatewayTimeout
	}

	// Stream defaults
	if c.Stream.BackoffBase == 0 {
		c.Stream.BackoffBase = DefaultBackoffBase
	}
	if c.Stream.BackoffMax == 0 {
		c.Stream.BackoffMax = DefaultBackoffMax
	}
	if c.Stream.MaxAttempts == 0 {
		c.Stream.MaxAttempts = DefaultMaxAttempts
	}
	if c.Stream.OrderBookDepth == 0 {
		c.Stream.OrderBookDepth = DefaultOrderBookDepth
	}
	if c.Stream.QueueSize == 0 {
		c.Stream.QueueSize = DefaultQueueSize
	}
	if c.Stream.KeepAliveInterval == 0 {
		c.Stream.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if c.Stream.HandshakeTimeout == 0 {
		c.Stream.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultWriteTimeout
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

	// Journal defaults
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}
	if c.Journal.BookQueueSize == 0 {
		c.Journal.BookQueueSize = DefaultBookQueueSize
	}
	if c.Journal.TradeQueueSize == 0 {
		c.Journal.TradeQueueSize = DefaultTradeQueueSize
	}
	if c.Journal.OrderQueueSize == 0 {
		c.Journal.OrderQueueSize = DefaultOrderQueueSize
	}

	// Refdata defaults
	if c.Refdata.SyncInterval == 0 {
		c.Refdata.SyncInterval = DefaultSyncInterval
	}

	// Feed defaults
	if c.Feed.Interval == 0 {
		c.Feed.Interval = DefaultFeedInterval
	}
	if c.Feed.Concurrency == 0 {
		c.Feed.Concurrency = DefaultFeedConcurrency
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = DefaultFeedTimeout
	}
	if c.Feed.MaxRetries == 0 {
		c.Feed.MaxRetries = DefaultFeedMaxRetries
	}

	// Kafka defaults
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = DefaultKafkaTopic
	}

	// Redis defaults
	if c.Redis.TTL == 0 {
		c.Redis.TTL = DefaultRedisTTL
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultMaxAgeDays
	}
}
