package router

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"tradebridge/internal/model"
	"tradebridge/internal/stream"
)

func event(t *testing.T, kind string, data map[string]any) stream.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"kind": kind, "data": data})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return stream.Event{Data: raw, ReceivedAt: time.Unix(1710498600, 0)}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BookQueueSize != 4096 {
		t.Errorf("BookQueueSize = %d, want 4096", cfg.BookQueueSize)
	}
	if cfg.TradeQueueSize != 1024 {
		t.Errorf("TradeQueueSize = %d, want 1024", cfg.TradeQueueSize)
	}
	if cfg.OrderQueueSize != 1024 {
		t.Errorf("OrderQueueSize = %d, want 1024", cfg.OrderQueueSize)
	}
}

func TestRouter_OrderBook(t *testing.T) {
	r := New(Config{}, nil, nil)
	defer r.Close()

	ev := event(t, "orderbook", map[string]any{
		"board":   "TQBR",
		"seccode": "SBER",
		"ts":      1710498600000000,
		"bids":    [][]any{{"289.50", 120}, {"289.40", 45}},
		"asks":    [][]any{{"289.60", 80}},
	})

	if err := r.HandleEvent(ev); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	book, ok := r.Books().TryPop()
	if !ok {
		t.Fatal("expected a routed order book")
	}
	if book.Board != "TQBR" || book.Seccode != "SBER" {
		t.Errorf("instrument = %s:%s, want TQBR:SBER", book.Board, book.Seccode)
	}
	if book.ExchangeTS != 1710498600000000 {
		t.Errorf("ExchangeTS = %d, want 1710498600000000", book.ExchangeTS)
	}
	if book.ReceivedAt != time.Unix(1710498600, 0).UnixMicro() {
		t.Errorf("ReceivedAt = %d, want %d", book.ReceivedAt, time.Unix(1710498600, 0).UnixMicro())
	}
	if len(book.Bids) != 2 || len(book.Asks) != 1 {
		t.Fatalf("levels = %d/%d, want 2/1", len(book.Bids), len(book.Asks))
	}
	if book.Bids[0].Price.String() != "289.5" {
		t.Errorf("best bid = %s, want 289.5", book.Bids[0].Price)
	}
	if book.Bids[0].Quantity != 120 {
		t.Errorf("best bid quantity = %d, want 120", book.Bids[0].Quantity)
	}

	stats := r.Stats()
	if stats.Received != 1 || stats.Routed != 1 {
		t.Errorf("stats = %+v, want received=1 routed=1", stats)
	}
}

func TestRouter_Trade(t *testing.T) {
	r := New(Config{}, nil, nil)
	defer r.Close()

	ev := event(t, "trade", map[string]any{
		"exec_id":   "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"trade_no":  990001,
		"order_no":  "38001",
		"client_id": "D00001",
		"board":     "TQBR",
		"seccode":   "SBER",
		"side":      "buy",
		"price":     "289.50",
		"quantity":  10,
		"value":     "28950",
		"ts":        1710498600000000,
	})

	if err := r.HandleEvent(ev); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	trade, ok := r.Trades().TryPop()
	if !ok {
		t.Fatal("expected a routed trade")
	}
	if trade.ExecID.String() != "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Errorf("ExecID = %s", trade.ExecID)
	}
	if trade.TradeNo != 990001 {
		t.Errorf("TradeNo = %d, want 990001", trade.TradeNo)
	}
	if trade.Side != model.SideBuy {
		t.Errorf("Side = %q, want %q", trade.Side, model.SideBuy)
	}
	if trade.Value.String() != "28950" {
		t.Errorf("Value = %s, want 28950", trade.Value)
	}
}

func TestRouter_Order(t *testing.T) {
	r := New(Config{}, nil, nil)
	defer r.Close()

	ev := event(t, "order", map[string]any{
		"order_no":  "38001",
		"client_id": "D00001",
		"board":     "TQBR",
		"seccode":   "SBER",
		"side":      "sell",
		"status":    "active",
		"price":     "290.00",
		"quantity":  10,
		"balance":   10,
		"ts":        1710498600000000,
	})

	if err := r.HandleEvent(ev); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	order, ok := r.Orders().TryPop()
	if !ok {
		t.Fatal("expected a routed order event")
	}
	if order.OrderNo != "38001" {
		t.Errorf("OrderNo = %q, want %q", order.OrderNo, "38001")
	}
	if order.Status != model.OrderStatusActive {
		t.Errorf("Status = %q, want %q", order.Status, model.OrderStatusActive)
	}
	if order.Balance != 10 {
		t.Errorf("Balance = %d, want 10", order.Balance)
	}
}

func TestRouter_ParseErrors(t *testing.T) {
	r := New(Config{}, nil, nil)
	defer r.Close()

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte(`{{{`)},
		{"bad level shape", mustMarshal(t, map[string]any{
			"kind": "orderbook",
			"data": map[string]any{"board": "TQBR", "seccode": "SBER", "bids": [][]any{{"289.50"}}},
		})},
		{"bad price", mustMarshal(t, map[string]any{
			"kind": "orderbook",
			"data": map[string]any{"board": "TQBR", "seccode": "SBER", "bids": [][]any{{"n/a", 1}}},
		})},
		{"missing instrument", mustMarshal(t, map[string]any{
			"kind": "orderbook",
			"data": map[string]any{"bids": [][]any{}},
		})},
		{"bad exec id", mustMarshal(t, map[string]any{
			"kind": "trade",
			"data": map[string]any{"exec_id": "nope", "side": "buy", "price": "1", "value": "1"},
		})},
		{"bad side", mustMarshal(t, map[string]any{
			"kind": "order",
			"data": map[string]any{"order_no": "1", "side": "hold", "price": "1"},
		})},
	}

	for _, tt := range tests {
		if err := r.HandleEvent(stream.Event{Data: tt.data, ReceivedAt: time.Now()}); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}

	stats := r.Stats()
	if stats.ParseErrors != int64(len(tests)) {
		t.Errorf("ParseErrors = %d, want %d", stats.ParseErrors, len(tests))
	}
	if stats.Routed != 0 {
		t.Errorf("Routed = %d, want 0", stats.Routed)
	}
	if _, ok := r.Books().TryPop(); ok {
		t.Error("no book should have been routed")
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestRouter_GatewayError(t *testing.T) {
	r := New(Config{}, nil, nil)
	defer r.Close()

	ev := event(t, "error", map[string]any{"code": "SUB_LIMIT", "message": "too many subscriptions"})
	err := r.HandleEvent(ev)
	if err == nil {
		t.Fatal("expected an error for a gateway error event")
	}
	if !strings.Contains(err.Error(), "SUB_LIMIT") {
		t.Errorf("error = %q, want it to name the gateway code", err)
	}
}

func TestRouter_ControlAndUnknownKinds(t *testing.T) {
	r := New(Config{}, nil, nil)
	defer r.Close()

	for _, kind := range []string{"subscribed", "unsubscribed", "keepalive"} {
		if err := r.HandleEvent(event(t, kind, map[string]any{})); err != nil {
			t.Errorf("%s: unexpected error: %v", kind, err)
		}
	}
	if err := r.HandleEvent(event(t, "news", map[string]any{})); err != nil {
		t.Errorf("unknown kind should be skipped, got %v", err)
	}

	stats := r.Stats()
	if stats.Unknown != 1 {
		t.Errorf("Unknown = %d, want 1", stats.Unknown)
	}
	if stats.Routed != 0 {
		t.Errorf("Routed = %d, want 0", stats.Routed)
	}
}

// recordingSink captures fanned-out events.
type recordingSink struct {
	mu     sync.Mutex
	books  []model.OrderBook
	trades []model.TradeEvent
	orders []model.OrderEvent
}

func (s *recordingSink) OrderBook(b model.OrderBook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = append(s.books, b)
}

func (s *recordingSink) Trade(tr model.TradeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, tr)
}

func (s *recordingSink) Order(o model.OrderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
}

func TestRouter_SinkFanOut(t *testing.T) {
	sink := &recordingSink{}
	r := New(Config{}, sink, nil)
	defer r.Close()

	ev := event(t, "orderbook", map[string]any{
		"board":   "TQBR",
		"seccode": "SBER",
		"bids":    [][]any{{"289.50", 120}},
		"asks":    [][]any{},
	})
	if err := r.HandleEvent(ev); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.books) != 1 {
		t.Fatalf("sink books = %d, want 1", len(sink.books))
	}
	if sink.books[0].Seccode != "SBER" {
		t.Errorf("sink Seccode = %q, want SBER", sink.books[0].Seccode)
	}

	// The journal queue gets the same book
	if _, ok := r.Books().TryPop(); !ok {
		t.Error("journal queue should also receive the book")
	}
}
