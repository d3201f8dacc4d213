// Package publish fans bridge events out to a Kafka topic.
//
// Everything goes to one topic; the message key is kind:subject
// (e.g. "orderbook:TQBR:SBER") so downstream consumers can filter by
// event kind or instrument without decoding payloads. Producers
// enqueue and never block on the broker.
package publish
