package journal

import (
	"encoding/json"
	"time"

	"tradebridge/internal/model"
)

// Config contains configuration for batch writers.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: 1 * time.Second,
	}
}

// Metrics counts writer activity. Conflicts are rows skipped by
// ON CONFLICT DO NOTHING, i.e. duplicates from stream replays.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}

// bookRow represents a row for the order_books table.
type bookRow struct {
	ExchangeTs int64 // Microseconds, 0 when the venue sent none
	ReceivedAt int64 // Microseconds
	Board      string
	Seccode    string
	Bids       []byte  // JSONB: [{"price": "289.50", "qty": 120}, ...]
	Asks       []byte  // JSONB
	BestBid    *string // nil when the side is empty
	BestAsk    *string
	Spread     *string
}

// tradeRow represents a row for the trades table.
type tradeRow struct {
	ExecID     string // UUID
	TradeNo    int64
	OrderNo    string
	ClientID   string
	Board      string
	Seccode    string
	Side       string
	Price      string
	Quantity   int64
	Value      string
	ExchangeTs int64
	ReceivedAt int64
}

// orderRow represents a row for the order_events table.
type orderRow struct {
	OrderNo    string
	ClientID   string
	Board      string
	Seccode    string
	Side       string
	Status     string
	Price      string
	Quantity   int64
	Balance    int64
	ExchangeTs int64
	ReceivedAt int64
}

// levelJSON represents one book level in JSONB format.
type levelJSON struct {
	Price string `json:"price"`
	Qty   int64  `json:"qty"`
}

// levelsToJSONB converts book levels to JSONB bytes.
func levelsToJSONB(levels []model.BookLevel) []byte {
	result := make([]levelJSON, len(levels))
	for i, level := range levels {
		result[i] = levelJSON{
			Price: level.Price.String(),
			Qty:   level.Quantity,
		}
	}
	data, _ := json.Marshal(result)
	return data
}
