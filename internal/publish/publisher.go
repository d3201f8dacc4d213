package publish

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"tradebridge/internal/stream"
)

// maxBatch caps how many queued events go into one produce call.
const maxBatch = 100

// Config holds event publication settings.
type Config struct {
	Brokers []string
	Topic   string

	// QueueSize is the initial capacity of the outbound queue.
	QueueSize int

	// WriteTimeout bounds a single produce call. Zero means 10s.
	WriteTimeout time.Duration

	// Async makes produce calls fire-and-forget. Delivery errors are
	// then only counted, not retried.
	Async bool
}

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher fans bridge events out to a Kafka topic. Producers hand
// events to Enqueue and never block on the broker; Run drains the
// queue in batches.
type Publisher struct {
	cfg    Config
	writer messageWriter
	queue  *stream.Queue[Event]
	logger *slog.Logger

	published atomic.Int64
	errors    atomic.Int64
}

// New creates a Publisher for the given brokers and topic.
func New(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
		Async:    cfg.Async,
	}

	p := &Publisher{
		cfg:    cfg,
		writer: writer,
		queue:  stream.NewQueue[Event](cfg.QueueSize),
		logger: logger,
	}

	if cfg.Async {
		writer.Completion = func(messages []kafka.Message, err error) {
			if err != nil {
				p.errors.Add(int64(len(messages)))
				p.logger.Error("async kafka write failed", "count", len(messages), "error", err)
			}
		}
	}

	return p
}

// Enqueue queues an event for publication. It returns false once the
// publisher is shutting down.
func (p *Publisher) Enqueue(evt Event) bool {
	return p.queue.Push(evt)
}

// Run drains the queue into Kafka until the context is cancelled, then
// finishes whatever was already queued and closes the writer.
func (p *Publisher) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		p.queue.Close()
	}()

	p.logger.Info("publisher started",
		"brokers", p.cfg.Brokers,
		"topic", p.cfg.Topic,
	)

	for {
		evt, ok := p.queue.Pop()
		if !ok {
			p.logger.Info("publisher drained",
				"published", p.published.Load(),
				"errors", p.errors.Load(),
			)
			return p.writer.Close()
		}

		batch := []Event{evt}
		for len(batch) < maxBatch {
			next, ok := p.queue.TryPop()
			if !ok {
				break
			}
			batch = append(batch, next)
		}

		p.send(batch)
	}
}

// send writes one batch of events to the topic. The message key is
// kind:subject so consumers can filter without decoding payloads.
func (p *Publisher) send(batch []Event) {
	msgs := make([]kafka.Message, len(batch))
	for i, evt := range batch {
		msgs[i] = kafka.Message{
			Key:   []byte(evt.Kind + ":" + evt.Subject),
			Value: evt.Payload,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.WriteTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.errors.Add(int64(len(msgs)))
		p.logger.Error("kafka write failed", "count", len(msgs), "error", err)
		return
	}

	// In async mode this counts hand-off to the writer; delivery
	// errors still land in the completion callback.
	p.published.Add(int64(len(msgs)))
}

// Stats returns publication counters and the queue snapshot.
func (p *Publisher) Stats() Stats {
	return Stats{
		Published: p.published.Load(),
		Errors:    p.errors.Load(),
		Queue:     p.queue.Stats(),
	}
}

// Stats is a point-in-time view of the publisher.
type Stats struct {
	Published int64
	Errors    int64
	Queue     stream.QueueStats
}
