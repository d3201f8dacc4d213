// Package model defines shared data types used across tradebridge.
//
// Conventions:
//   - Prices and money amounts: decimal.Decimal (venue scale preserved exactly)
//   - Stream-sourced rows (OrderBook, TradeEvent, OrderEvent): int64 microseconds
//     since Unix epoch, matching the journal schema
//   - REST-sourced types (Security, Candle, Portfolio, ...): time.Time
//   - Instruments: addressed as board + seccode (e.g. TQBR:SBER)
//   - IDs: string for venue order numbers, uuid.UUID for gateway execution IDs
package model
