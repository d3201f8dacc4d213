package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradebridge/internal/model"
	"tradebridge/internal/stream"
)

// OrderWriter consumes own-order state changes from the router queue
// and writes them to the order_events table.
type OrderWriter struct {
	cfg    Config
	logger *slog.Logger

	// Input from the message router
	input *stream.Queue[model.OrderEvent]

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []orderRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics Metrics
}

// NewOrderWriter creates a new OrderWriter.
func NewOrderWriter(
	cfg Config,
	input *stream.Queue[model.OrderEvent],
	db *pgxpool.Pool,
	logger *slog.Logger,
) *OrderWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]orderRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming order events and writing to the database.
func (w *OrderWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("order writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *OrderWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping order writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("order writer stopped")
	case <-ctx.Done():
		w.logger.Warn("order writer stop timed out")
	}

	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *OrderWriter) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the input queue and accumulates batches.
func (w *OrderWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			event, ok := w.input.TryPop()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleEvent(event)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *OrderWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// handleEvent transforms and adds an order event to the batch.
func (w *OrderWriter) handleEvent(event model.OrderEvent) {
	row := w.transform(event)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts an OrderEvent to an orderRow.
func (w *OrderWriter) transform(event model.OrderEvent) orderRow {
	return orderRow{
		OrderNo:    event.OrderNo,
		ClientID:   event.ClientID,
		Board:      event.Board,
		Seccode:    event.Seccode,
		Side:       string(event.Side),
		Status:     event.Status,
		Price:      event.Price.String(),
		Quantity:   event.Quantity,
		Balance:    event.Balance,
		ExchangeTs: event.ExchangeTS,
		ReceivedAt: event.ReceivedAt,
	}
}

// flush writes the current batch to the database.
func (w *OrderWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]orderRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("order batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed order events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
// One order produces several events over its life, so the key includes
// status and balance. A replayed current-state event after a reconnect
// matches an existing row and is skipped.
func (w *OrderWriter) batchInsert(ctx context.Context, rows []orderRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO order_events (order_no, client_id, board, seccode, side, status, price, quantity, balance, exchange_ts, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (order_no, status, balance, exchange_ts) DO NOTHING
		`, r.OrderNo, r.ClientID, r.Board, r.Seccode, r.Side, r.Status, r.Price, r.Quantity, r.Balance, r.ExchangeTs, r.ReceivedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
