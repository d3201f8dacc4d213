package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"tradebridge/internal/model"
)

// quoteKeyPrefix namespaces quote entries in Redis.
const quoteKeyPrefix = "quote:"

// Config holds quote cache settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL is how long a quote stays readable after its last update.
	// Zero means entries never expire.
	TTL time.Duration
}

// QuoteCache is a Redis-backed last-value store for quotes. Each
// instrument maps to one key that later writes overwrite, so readers
// always see the most recent quote the bridge has.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewQuoteCache connects to Redis and verifies the connection.
func NewQuoteCache(cfg Config, logger *slog.Logger) (*QuoteCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("quote cache connected", "addr", cfg.Addr, "ttl", cfg.TTL)

	return &QuoteCache{
		client: client,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

// quoteKey returns the Redis key for an instrument's quote.
func quoteKey(inst model.Instrument) string {
	return quoteKeyPrefix + inst.Board + ":" + inst.Seccode
}

// Put stores a quote, overwriting any previous value for the
// instrument.
func (c *QuoteCache) Put(ctx context.Context, quote model.Quote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	key := quoteKey(model.Instrument{Board: quote.Board, Seccode: quote.Seccode})
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("store quote: %w", err)
	}

	return nil
}

// Latest returns the most recent quote for an instrument. The second
// return value is false when nothing is cached.
func (c *QuoteCache) Latest(ctx context.Context, inst model.Instrument) (model.Quote, bool, error) {
	data, err := c.client.Get(ctx, quoteKey(inst)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Quote{}, false, nil
	}
	if err != nil {
		return model.Quote{}, false, fmt.Errorf("get quote: %w", err)
	}

	var quote model.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return model.Quote{}, false, fmt.Errorf("unmarshal quote: %w", err)
	}

	return quote, true, nil
}

// Ping checks the Redis connection.
func (c *QuoteCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *QuoteCache) Close() error {
	return c.client.Close()
}
