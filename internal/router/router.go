// Package router turns raw stream frames into typed model events and hands
// them to per-kind queues consumed by the journal writers. It runs entirely
// on the stream client's dispatch goroutine.
package router

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradebridge/internal/model"
	"tradebridge/internal/stream"
)

// Router parses gateway event envelopes and routes them to typed queues.
// It implements stream.Handler.
type Router struct {
	cfg    Config
	logger *slog.Logger
	sink   Sink // Optional fan-out, may be nil

	books  *stream.Queue[model.OrderBook]
	trades *stream.Queue[model.TradeEvent]
	orders *stream.Queue[model.OrderEvent]

	received    atomic.Int64
	routed      atomic.Int64
	parseErrors atomic.Int64
	unknown     atomic.Int64
}

// New creates a router with queues sized per cfg. sink may be nil.
func New(cfg Config, sink Sink, logger *slog.Logger) *Router {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		cfg:    cfg,
		logger: logger,
		sink:   sink,
		books:  stream.NewQueue[model.OrderBook](cfg.BookQueueSize),
		trades: stream.NewQueue[model.TradeEvent](cfg.TradeQueueSize),
		orders: stream.NewQueue[model.OrderEvent](cfg.OrderQueueSize),
	}
}

// Books returns the order book output queue.
func (r *Router) Books() *stream.Queue[model.OrderBook] { return r.books }

// Trades returns the own-trade output queue.
func (r *Router) Trades() *stream.Queue[model.TradeEvent] { return r.trades }

// Orders returns the own-order output queue.
func (r *Router) Orders() *stream.Queue[model.OrderEvent] { return r.orders }

// Close closes the output queues. Consumers drain what was already routed.
func (r *Router) Close() {
	r.books.Close()
	r.trades.Close()
	r.orders.Close()
}

// Stats returns current routing counters.
func (r *Router) Stats() Stats {
	return Stats{
		Received:    r.received.Load(),
		Routed:      r.routed.Load(),
		ParseErrors: r.parseErrors.Load(),
		Unknown:     r.unknown.Load(),
	}
}

// HandleEvent parses one frame and routes it. A returned error surfaces on
// the stream client's error channel; routing continues with the next frame.
func (r *Router) HandleEvent(ev stream.Event) error {
	r.received.Add(1)

	var envelope eventEnvelope
	if err := json.Unmarshal(ev.Data, &envelope); err != nil {
		r.parseErrors.Add(1)
		return fmt.Errorf("parse envelope: %w", err)
	}

	switch envelope.Kind {
	case "orderbook":
		book, err := parseBook(envelope.Data, ev)
		if err != nil {
			r.parseErrors.Add(1)
			return fmt.Errorf("parse orderbook: %w", err)
		}
		r.books.Push(book)
		if r.sink != nil {
			r.sink.OrderBook(book)
		}

	case "trade":
		trade, err := parseTrade(envelope.Data, ev)
		if err != nil {
			r.parseErrors.Add(1)
			return fmt.Errorf("parse trade: %w", err)
		}
		r.trades.Push(trade)
		if r.sink != nil {
			r.sink.Trade(trade)
		}

	case "order":
		order, err := parseOrder(envelope.Data, ev)
		if err != nil {
			r.parseErrors.Add(1)
			return fmt.Errorf("parse order: %w", err)
		}
		r.orders.Push(order)
		if r.sink != nil {
			r.sink.Order(order)
		}

	case "error":
		var we errorWire
		if err := json.Unmarshal(envelope.Data, &we); err != nil {
			r.parseErrors.Add(1)
			return fmt.Errorf("parse error event: %w", err)
		}
		return fmt.Errorf("gateway stream error %s: %s", we.Code, we.Message)

	case "subscribed", "unsubscribed", "keepalive":
		// Control acknowledgements carry no payload worth routing.
		return nil

	default:
		r.unknown.Add(1)
		r.logger.Debug("skipping event kind", "kind", envelope.Kind)
		return nil
	}

	r.routed.Add(1)
	return nil
}

func parseBook(data []byte, ev stream.Event) (model.OrderBook, error) {
	var wire bookWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return model.OrderBook{}, err
	}
	if wire.Board == "" || wire.Seccode == "" {
		return model.OrderBook{}, fmt.Errorf("missing board or seccode")
	}

	bids, err := parseLevels(wire.Bids)
	if err != nil {
		return model.OrderBook{}, fmt.Errorf("bids: %w", err)
	}
	asks, err := parseLevels(wire.Asks)
	if err != nil {
		return model.OrderBook{}, fmt.Errorf("asks: %w", err)
	}

	return model.OrderBook{
		Board:      wire.Board,
		Seccode:    wire.Seccode,
		ExchangeTS: wire.Ts,
		ReceivedAt: ev.ReceivedAt.UnixMicro(),
		Bids:       bids,
		Asks:       asks,
	}, nil
}

func parseTrade(data []byte, ev stream.Event) (model.TradeEvent, error) {
	var wire tradeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return model.TradeEvent{}, err
	}

	execID, err := uuid.Parse(wire.ExecID)
	if err != nil {
		return model.TradeEvent{}, fmt.Errorf("exec_id %q: %w", wire.ExecID, err)
	}
	side, err := parseSide(wire.Side)
	if err != nil {
		return model.TradeEvent{}, err
	}
	price, err := decimal.NewFromString(wire.Price)
	if err != nil {
		return model.TradeEvent{}, fmt.Errorf("price %q: %w", wire.Price, err)
	}
	value, err := decimal.NewFromString(wire.Value)
	if err != nil {
		return model.TradeEvent{}, fmt.Errorf("value %q: %w", wire.Value, err)
	}

	return model.TradeEvent{
		ExecID:     execID,
		TradeNo:    wire.TradeNo,
		OrderNo:    wire.OrderNo,
		ClientID:   wire.ClientID,
		Board:      wire.Board,
		Seccode:    wire.Seccode,
		Side:       side,
		Price:      price,
		Quantity:   wire.Quantity,
		Value:      value,
		ExchangeTS: wire.Ts,
		ReceivedAt: ev.ReceivedAt.UnixMicro(),
	}, nil
}

func parseOrder(data []byte, ev stream.Event) (model.OrderEvent, error) {
	var wire orderWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return model.OrderEvent{}, err
	}
	if wire.OrderNo == "" {
		return model.OrderEvent{}, fmt.Errorf("missing order_no")
	}

	side, err := parseSide(wire.Side)
	if err != nil {
		return model.OrderEvent{}, err
	}
	price, err := decimal.NewFromString(wire.Price)
	if err != nil {
		return model.OrderEvent{}, fmt.Errorf("price %q: %w", wire.Price, err)
	}

	return model.OrderEvent{
		OrderNo:    wire.OrderNo,
		ClientID:   wire.ClientID,
		Board:      wire.Board,
		Seccode:    wire.Seccode,
		Side:       side,
		Status:     wire.Status,
		Price:      price,
		Quantity:   wire.Quantity,
		Balance:    wire.Balance,
		ExchangeTS: wire.Ts,
		ReceivedAt: ev.ReceivedAt.UnixMicro(),
	}, nil
}
