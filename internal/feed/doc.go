// Package feed polls the public market-data HTTP feed for board-level
// quote snapshots.
//
// The feed is independent of the trade gateway: no authentication, its
// own retry policy with exponential backoff and jitter, and a poll
// cycle with bounded concurrency across boards. Fetched quotes go to a
// QuoteHandler; the service wires one that fans out to the quote cache
// and the event publisher.
package feed
