package config

import "time"

// Config is the root configuration for a bridge instance.
type Config struct {
	Instance      InstanceConfig      `yaml:"instance"`
	Gateway       GatewayConfig       `yaml:"gateway"`
	Stream        StreamConfig        `yaml:"stream"`
	Subscriptions SubscriptionsConfig `yaml:"subscriptions"`
	Database      DBConfig            `yaml:"database"`
	Journal       JournalConfig       `yaml:"journal"`
	Refdata       RefdataConfig       `yaml:"refdata"`
	Feed          FeedConfig          `yaml:"feed"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Redis         RedisConfig         `yaml:"redis"`
	Health        HealthConfig        `yaml:"health"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// InstanceConfig identifies this bridge.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// GatewayConfig holds trade gateway endpoints and credentials.
type GatewayConfig struct {
	RestURL string        `yaml:"rest_url"`
	WSURL   string        `yaml:"ws_url"`
	Token   string        `yaml:"token"` // Usually ${GATEWAY_TOKEN}
	Timeout time.Duration `yaml:"timeout"`
}

// StreamConfig holds event stream session settings.
type StreamConfig struct {
	BackoffBase       time.Duration `yaml:"backoff_base"`
	BackoffMax        time.Duration `yaml:"backoff_max"`
	MaxAttempts       int           `yaml:"max_attempts"` // Negative means retry forever
	OrderBookDepth    int           `yaml:"orderbook_depth"`
	QueueSize         int           `yaml:"queue_size"`
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"` // Zero disables the read deadline
}

// SubscriptionsConfig lists what the bridge subscribes to at startup.
type SubscriptionsConfig struct {
	OrderBooks    []string `yaml:"orderbooks"` // "BOARD:SECCODE" entries
	ClientIDs     []string `yaml:"client_ids"` // Accounts for the own-trade/order feed
	IncludeTrades bool     `yaml:"include_trades"`
	IncludeOrders bool     `yaml:"include_orders"`
}

// DBConfig holds the journal database connection.
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

// JournalConfig holds batch writer settings.
type JournalConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
	BookQueueSize  int           `yaml:"book_queue_size"`
	TradeQueueSize int           `yaml:"trade_queue_size"`
	OrderQueueSize int           `yaml:"order_queue_size"`
}

// RefdataConfig holds securities catalog settings.
type RefdataConfig struct {
	Boards       []string      `yaml:"boards"` // Empty means all boards
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// FeedConfig holds public market-data poller settings.
type FeedConfig struct {
	Enabled     bool          `yaml:"enabled"`
	URL         string        `yaml:"url"`
	Boards      []string      `yaml:"boards"`
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// KafkaConfig holds event publication settings.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RedisConfig holds quote cache settings.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json or text
	File       string `yaml:"file"`   // Empty means stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}
