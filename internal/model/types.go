package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side of an order or trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order lifecycle statuses reported by the gateway.
const (
	OrderStatusActive    = "active"
	OrderStatusMatched   = "matched"
	OrderStatusCancelled = "cancelled"
	OrderStatusRejected  = "rejected"
)

// -----------------------------------------------------------------------------
// Stream Types (journaled; timestamps are µs since epoch)
// -----------------------------------------------------------------------------

// BookLevel is a single price level of an order book.
type BookLevel struct {
	Price    decimal.Decimal // Level price
	Quantity int64           // Lots resting at this price
}

// OrderBook is a full depth-of-market snapshot for one instrument.
type OrderBook struct {
	Board      string      // Trading board (e.g. "TQBR")
	Seccode    string      // Security code (e.g. "SBER")
	ExchangeTS int64       // Venue timestamp (µs since epoch), 0 if not provided
	ReceivedAt int64       // Bridge receive timestamp (µs since epoch)
	Bids       []BookLevel // Buy side, best first
	Asks       []BookLevel // Sell side, best first
}

// Instrument returns the book's instrument address.
func (b OrderBook) Instrument() Instrument {
	return Instrument{Board: b.Board, Seccode: b.Seccode}
}

// BestBid returns the top buy level, or false when the side is empty.
func (b OrderBook) BestBid() (BookLevel, bool) {
	if len(b.Bids) == 0 {
		return BookLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top sell level, or false when the side is empty.
func (b OrderBook) BestAsk() (BookLevel, bool) {
	if len(b.Asks) == 0 {
		return BookLevel{}, false
	}
	return b.Asks[0], true
}

// Spread returns best ask minus best bid, or false when either side is empty.
func (b OrderBook) Spread() (decimal.Decimal, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return decimal.Decimal{}, false
	}
	return ask.Price.Sub(bid.Price), true
}

// TradeEvent is an execution of the client's own order.
type TradeEvent struct {
	ExecID     uuid.UUID       // Gateway-assigned execution ID
	TradeNo    int64           // Venue trade number
	OrderNo    string          // Venue order number the fill belongs to
	ClientID   string          // Brokerage client account
	Board      string          // Trading board
	Seccode    string          // Security code
	Side       Side            // buy or sell
	Price      decimal.Decimal // Fill price
	Quantity   int64           // Fill size, lots
	Value      decimal.Decimal // Fill value in money terms
	ExchangeTS int64           // Venue timestamp (µs since epoch)
	ReceivedAt int64           // Bridge receive timestamp (µs since epoch)
}

// OrderEvent is a state change of the client's own order.
type OrderEvent struct {
	OrderNo    string          // Venue order number
	ClientID   string          // Brokerage client account
	Board      string          // Trading board
	Seccode    string          // Security code
	Side       Side            // buy or sell
	Status     string          // One of the OrderStatus constants
	Price      decimal.Decimal // Order price (zero for market orders)
	Quantity   int64           // Original size, lots
	Balance    int64           // Unfilled remainder, lots
	ExchangeTS int64           // Venue timestamp (µs since epoch)
	ReceivedAt int64           // Bridge receive timestamp (µs since epoch)
}

// -----------------------------------------------------------------------------
// REST Types
// -----------------------------------------------------------------------------

// Security is a venue reference-data record for one instrument.
type Security struct {
	Board     string          // Trading board
	Seccode   string          // Security code
	ShortName string          // Display name
	Market    string          // Venue market id
	Currency  string          // Settlement currency
	LotSize   int             // Shares per lot
	Decimals  int             // Price precision
	MinStep   decimal.Decimal // Minimum price increment
	Active    bool            // Currently tradeable
}

// Instrument returns the security's instrument address.
func (s Security) Instrument() Instrument {
	return Instrument{Board: s.Board, Seccode: s.Seccode}
}

// Quote is a top-of-book snapshot from the public market-data feed.
type Quote struct {
	Board     string          // Trading board
	Seccode   string          // Security code
	Last      decimal.Decimal // Last trade price
	Bid       decimal.Decimal // Best bid
	Ask       decimal.Decimal // Best ask
	Change    decimal.Decimal // Change versus previous close
	Volume    int64           // Day volume, lots
	UpdatedAt time.Time       // Feed timestamp
}

// Candle is one OHLCV bar.
type Candle struct {
	Board     string
	Seccode   string
	Timeframe string          // e.g. "M1", "H1", "D1"
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
	Begin     time.Time // Bar open time
}

// Order is the client's own order as reported by the gateway.
type Order struct {
	OrderNo       string          // Venue order number
	TransactionID string          // Gateway transaction id assigned at placement
	ClientID      string          // Brokerage client account
	Board         string
	Seccode       string
	Side          Side
	Status        string
	Price         decimal.Decimal
	Quantity      int64
	Balance       int64 // Unfilled remainder, lots
	PlacedAt      time.Time
	UpdatedAt     time.Time
}

// StopOrder is a conditional order resting at the gateway.
type StopOrder struct {
	StopID        string // Gateway stop order id
	ClientID      string
	Board         string
	Seccode       string
	Side          Side
	Status        string
	TriggerPrice  decimal.Decimal // Activation threshold
	Price         decimal.Decimal // Limit price once triggered (zero = market)
	Quantity      int64
	LinkedOrderNo string // Order created on trigger, if any
	PlacedAt      time.Time
}

// Position is one holding inside a portfolio.
type Position struct {
	Board      string
	Seccode    string
	Quantity   int64           // Signed lots, negative = short
	AvgPrice   decimal.Decimal // Volume-weighted entry price
	CurrentPx  decimal.Decimal // Mark price
	ProfitLoss decimal.Decimal // Unrealized P&L in money terms
}

// Portfolio is the client's account state.
type Portfolio struct {
	ClientID  string
	Currency  string
	Equity    decimal.Decimal // Total account value
	Cash      decimal.Decimal // Free money
	Positions []Position
	UpdatedAt time.Time
}
