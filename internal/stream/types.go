package stream

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Errors
var (
	ErrChannelClosed    = errors.New("no open channel")
	ErrClosed           = errors.New("client closed")
	ErrAlreadyConnected = errors.New("already connected")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrGiveUp           = errors.New("reconnect attempts exhausted")
)

// State of the logical stream.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateReconnecting
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is one connection state notification.
type Status struct {
	State   State
	Attempt int // reconnect attempt number, set while State is StateReconnecting
}

// Event is one raw inbound frame from the gateway.
type Event struct {
	Data       []byte    // Raw frame bytes
	ReceivedAt time.Time // Local timestamp when the frame was read
}

// Handler consumes dispatched events. A returned error is reported on the
// client's error channel; it does not stop dispatch.
type Handler interface {
	HandleEvent(ev Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ev Event) error

// HandleEvent calls f(ev).
func (f HandlerFunc) HandleEvent(ev Event) error {
	return f(ev)
}

// Key identifies one subscription in canonical form, e.g.
// "orderbook:TQBR:SBER" or "ordertrade:D00001,D00002".
type Key string

// OrderBookKey returns the key for an order book subscription.
func OrderBookKey(board, seccode string) Key {
	return Key("orderbook:" + board + ":" + seccode)
}

// OrderTradeKey returns the key for an order/trade subscription.
// Client IDs are sorted so the same set always yields the same key.
func OrderTradeKey(clientIDs []string) Key {
	ids := make([]string, len(clientIDs))
	copy(ids, clientIDs)
	sort.Strings(ids)
	return Key("ordertrade:" + strings.Join(ids, ","))
}

// Wire operations and subscription kinds.
const (
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
	opKeepAlive   = "keepalive"

	kindOrderBook  = "orderbook"
	kindOrderTrade = "ordertrade"
)

// Command is one outbound gateway frame. RequestID is stamped with a fresh
// UUID on every send, including replays.
type Command struct {
	RequestID     string   `json:"request_id,omitempty"`
	Op            string   `json:"op"`
	Kind          string   `json:"kind,omitempty"`
	Board         string   `json:"board,omitempty"`
	Seccode       string   `json:"seccode,omitempty"`
	Depth         int      `json:"depth,omitempty"`
	ClientIDs     []string `json:"client_ids,omitempty"`
	IncludeTrades bool     `json:"include_trades,omitempty"`
	IncludeOrders bool     `json:"include_orders,omitempty"`
}

// OrderTradeRequest describes an order/trade subscription for a set of
// brokerage client accounts.
type OrderTradeRequest struct {
	ClientIDs     []string
	IncludeTrades bool
	IncludeOrders bool
}

// Config configures a Client.
type Config struct {
	Dialer  Dialer       // Required. Opens channels to the gateway.
	Handler Handler      // Required. Receives dispatched events.
	Logger  *slog.Logger // nil = slog.Default()

	BackoffBase time.Duration // First reconnect delay. Default 1s.
	BackoffMax  time.Duration // Delay ceiling. Default 60s.

	// MaxAttempts bounds consecutive failed reconnect attempts before the
	// stream enters StateFailed. 0 uses the default, negative retries forever.
	MaxAttempts int

	OrderBookDepth int // Levels per side requested on subscribe. Default 10.

	QueueSize    int // Initial dispatch queue capacity. Default 1024.
	StatusBuffer int // Status channel buffer. Default 16.
	ErrorBuffer  int // Error channel buffer. Default 16.
}

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultBackoffBase    = 1 * time.Second
	DefaultBackoffMax     = 60 * time.Second
	DefaultMaxAttempts    = 10
	DefaultOrderBookDepth = 10
	DefaultQueueSize      = 1024
	DefaultNotifyBuffer   = 16
)

func (cfg Config) withDefaults() Config {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = DefaultBackoffMax
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.OrderBookDepth <= 0 {
		cfg.OrderBookDepth = DefaultOrderBookDepth
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.StatusBuffer <= 0 {
		cfg.StatusBuffer = DefaultNotifyBuffer
	}
	if cfg.ErrorBuffer <= 0 {
		cfg.ErrorBuffer = DefaultNotifyBuffer
	}
	return cfg
}
