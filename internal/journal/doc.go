// Package journal implements batch writers for the persisted stream data.
//
// Writers:
//   - Book writer (order_books)
//   - Trade writer (trades)
//   - Order writer (order_events)
//
// All writers use append-only semantics (never update, only insert) with
// ON CONFLICT DO NOTHING, so a replayed event after a reconnect is a no-op.
// Prices are bound as decimal strings and stored in NUMERIC columns.
package journal
