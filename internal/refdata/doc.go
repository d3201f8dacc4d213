// Package refdata keeps an in-memory catalog of venue securities.
//
// The catalog loads reference data from the gateway REST API at
// startup and re-syncs on a timer. Lookups are keyed by instrument
// (BOARD:SECCODE) and served from memory, so callers can validate
// subscriptions and resolve instrument metadata without touching the
// network.
package refdata
