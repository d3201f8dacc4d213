package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tradebridge/internal/model"
)

// QuoteHandler receives fetched quotes, one batch per board.
type QuoteHandler interface {
	HandleQuotes(quotes []model.Quote) error
}

// QuoteHandlerFunc is a function adapter for QuoteHandler.
type QuoteHandlerFunc func([]model.Quote) error

func (f QuoteHandlerFunc) HandleQuotes(quotes []model.Quote) error {
	return f(quotes)
}

// Config holds poller configuration.
type Config struct {
	Boards      []string      // Boards to poll
	Interval    time.Duration // Poll interval (default: 1m)
	Concurrency int           // Max concurrent requests (default: 4)
	Timeout     time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    time.Minute,
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Poller periodically fetches board quotes from the public feed.
type Poller struct {
	cfg     Config
	client  *Client
	handler QuoteHandler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, client *Client, handler QuoteHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Poller{
		cfg:     cfg,
		client:  client,
		handler: handler,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("quote poller started",
		"boards", p.cfg.Boards,
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("quote poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll()
		}
	}
}

// pollAll fetches quotes for all configured boards concurrently.
func (p *Poller) pollAll() {
	start := time.Now()

	if len(p.cfg.Boards) == 0 {
		p.logger.Debug("no boards configured to poll")
		return
	}

	// Semaphore for bounded concurrency.
	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	var fetched, errors atomic.Int64

	for _, board := range p.cfg.Boards {
		wg.Add(1)
		go func(board string) {
			defer wg.Done()

			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-p.ctx.Done():
				return
			}

			n, err := p.pollBoard(board)
			if err != nil {
				p.logger.Warn("failed to poll board",
					"board", board,
					"error", err,
				)
				errors.Add(1)
				return
			}

			fetched.Add(int64(n))
		}(board)
	}

	wg.Wait()

	p.logger.Info("quote poll cycle complete",
		"boards", len(p.cfg.Boards),
		"quotes", fetched.Load(),
		"errors", errors.Load(),
		"duration", time.Since(start),
	)
}

// pollBoard fetches and handles quotes for a single board.
func (p *Poller) pollBoard(board string) (int, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	quotes, err := p.client.Quotes(ctx, board)
	if err != nil {
		return 0, err
	}

	if p.handler != nil && len(quotes) > 0 {
		if err := p.handler.HandleQuotes(quotes); err != nil {
			return 0, err
		}
	}

	return len(quotes), nil
}
