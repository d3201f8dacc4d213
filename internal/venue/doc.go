// Package venue wraps the trade gateway's unary REST API: portfolio,
// orders, stop orders, securities and candles.
//
// Every call validates its arguments first, attaches the static bearer
// token, and translates failures into *Error with a stable code taxonomy.
// Calls are not retried here; transient failures are the caller's retry
// decision, and the event stream is never touched by these calls.
package venue
