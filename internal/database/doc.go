// Package database provides the connection pool for the journal database.
//
// One PostgreSQL instance holds everything the bridge persists: order book
// snapshots, own trades and own order events. Reference data lives in-memory
// (see internal/refdata) and is not stored here.
package database
