package journal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradebridge/internal/model"
	"tradebridge/internal/stream"
)

func TestTradeWriter_Transform(t *testing.T) {
	cfg := DefaultConfig()
	input := stream.NewQueue[model.TradeEvent](10)
	w := NewTradeWriter(cfg, input, nil, nil)

	execID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	trade := model.TradeEvent{
		ExecID:     execID,
		TradeNo:    987654321,
		OrderNo:    "38905582",
		ClientID:   "D12345",
		Board:      "TQBR",
		Seccode:    "SBER",
		Side:       model.SideBuy,
		Price:      decimal.RequireFromString("289.55"),
		Quantity:   10,
		Value:      decimal.RequireFromString("28955.00"),
		ExchangeTS: 1705320000000000,
		ReceivedAt: 1705320000050000,
	}

	row := w.transform(trade)

	if row.ExecID != "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Errorf("ExecID = %s", row.ExecID)
	}
	if row.TradeNo != 987654321 {
		t.Errorf("TradeNo = %d, want 987654321", row.TradeNo)
	}
	if row.OrderNo != "38905582" {
		t.Errorf("OrderNo = %s, want 38905582", row.OrderNo)
	}
	if row.ClientID != "D12345" {
		t.Errorf("ClientID = %s, want D12345", row.ClientID)
	}
	if row.Side != "buy" {
		t.Errorf("Side = %s, want buy", row.Side)
	}
	if row.Price != "289.55" {
		t.Errorf("Price = %s, want 289.55", row.Price)
	}
	if row.Quantity != 10 {
		t.Errorf("Quantity = %d, want 10", row.Quantity)
	}
	if row.Value != "28955" {
		t.Errorf("Value = %s, want 28955", row.Value)
	}
	if row.ExchangeTs != 1705320000000000 {
		t.Errorf("ExchangeTs = %d", row.ExchangeTs)
	}
	if row.ReceivedAt != 1705320000050000 {
		t.Errorf("ReceivedAt = %d", row.ReceivedAt)
	}
}

func TestTradeWriter_Lifecycle(t *testing.T) {
	cfg := Config{
		BatchSize:     10,
		FlushInterval: 100 * time.Millisecond,
	}
	input := stream.NewQueue[model.TradeEvent](10)
	w := NewTradeWriter(cfg, input, nil, nil)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestTradeWriter_HandleTrade_AddsToBatch(t *testing.T) {
	cfg := Config{
		BatchSize:     100,
		FlushInterval: time.Hour,
	}
	input := stream.NewQueue[model.TradeEvent](10)
	w := NewTradeWriter(cfg, input, nil, nil)

	w.handleTrade(model.TradeEvent{ExecID: uuid.New(), OrderNo: "1"})

	w.batchMu.Lock()
	batchLen := len(w.batch)
	w.batchMu.Unlock()

	if batchLen != 1 {
		t.Errorf("batch length = %d, want 1", batchLen)
	}
}

func TestTradeWriter_Stats(t *testing.T) {
	cfg := DefaultConfig()
	input := stream.NewQueue[model.TradeEvent](10)
	w := NewTradeWriter(cfg, input, nil, nil)

	stats := w.Stats()

	if stats.Inserts != 0 {
		t.Errorf("initial Inserts = %d, want 0", stats.Inserts)
	}
	if stats.Errors != 0 {
		t.Errorf("initial Errors = %d, want 0", stats.Errors)
	}
}
