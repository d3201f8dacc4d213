package router

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"tradebridge/internal/model"
)

// Config holds queue sizing for the event router.
type Config struct {
	BookQueueSize  int // Default: 4096
	TradeQueueSize int // Default: 1024
	OrderQueueSize int // Default: 1024
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		BookQueueSize:  4096,
		TradeQueueSize: 1024,
		OrderQueueSize: 1024,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BookQueueSize <= 0 {
		c.BookQueueSize = def.BookQueueSize
	}
	if c.TradeQueueSize <= 0 {
		c.TradeQueueSize = def.TradeQueueSize
	}
	if c.OrderQueueSize <= 0 {
		c.OrderQueueSize = def.OrderQueueSize
	}
	return c
}

// Sink receives a copy of every routed event, after it has been queued for
// the journal. Implementations must not block for long; they run on the
// dispatch goroutine.
type Sink interface {
	OrderBook(book model.OrderBook)
	Trade(trade model.TradeEvent)
	Order(order model.OrderEvent)
}

// Stats contains routing counters and queue depths.
type Stats struct {
	Received    int64
	Routed      int64
	ParseErrors int64
	Unknown     int64
}

// Wire types for JSON parsing

// eventEnvelope carries the kind discriminator plus the raw payload.
type eventEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// bookWire is the wire format for orderbook events.
// Levels arrive as [price, quantity] pairs, price as a decimal string.
type bookWire struct {
	Board   string  `json:"board"`
	Seccode string  `json:"seccode"`
	Ts      int64   `json:"ts"` // Microseconds
	Bids    [][]any `json:"bids"`
	Asks    [][]any `json:"asks"`
}

// tradeWire is the wire format for own-trade events.
type tradeWire struct {
	ExecID   string `json:"exec_id"`
	TradeNo  int64  `json:"trade_no"`
	OrderNo  string `json:"order_no"`
	ClientID string `json:"client_id"`
	Board    string `json:"board"`
	Seccode  string `json:"seccode"`
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Value    string `json:"value"`
	Ts       int64  `json:"ts"` // Microseconds
}

// orderWire is the wire format for own-order events.
type orderWire struct {
	OrderNo  string `json:"order_no"`
	ClientID string `json:"client_id"`
	Board    string `json:"board"`
	Seccode  string `json:"seccode"`
	Side     string `json:"side"`
	Status   string `json:"status"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Balance  int64  `json:"balance"`
	Ts       int64  `json:"ts"` // Microseconds
}

// errorWire is the wire format for gateway-reported stream errors.
type errorWire struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// parseLevels converts wire [price, quantity] pairs into book levels.
func parseLevels(raw [][]any) ([]model.BookLevel, error) {
	levels := make([]model.BookLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) != 2 {
			return nil, fmt.Errorf("level must be a [price, quantity] pair, got %d elements", len(pair))
		}
		price, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("level price must be a string, got %T", pair[0])
		}
		qty, ok := pair[1].(float64)
		if !ok {
			return nil, fmt.Errorf("level quantity must be a number, got %T", pair[1])
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("level price %q: %w", price, err)
		}
		levels = append(levels, model.BookLevel{Price: d, Quantity: int64(qty)})
	}
	return levels, nil
}

func parseSide(s string) (model.Side, error) {
	side := model.Side(s)
	if side != model.SideBuy && side != model.SideSell {
		return "", fmt.Errorf("unknown side %q", s)
	}
	return side, nil
}
