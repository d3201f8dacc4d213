// Package stream maintains one logical event stream to the trade gateway
// on top of short-lived duplex channels.
//
// A Client owns a single channel at a time. When the channel fails, the
// client tears it down, reopens with exponential backoff, and replays every
// recorded subscription before reporting the stream healthy again. Callers
// therefore subscribe once and observe a stream that survives disconnects.
//
// Inbound frames are handed to a registered Handler on a dedicated consumer
// goroutine behind an unbounded queue, so a slow or panicking handler never
// stalls the channel reader. Connection state changes and background errors
// are reported on buffered notification channels.
package stream
