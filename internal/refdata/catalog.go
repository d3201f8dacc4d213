package refdata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tradebridge/internal/model"
	"tradebridge/internal/venue"
)

// Config holds securities catalog configuration.
type Config struct {
	// Boards to load reference data for. Empty means every board the
	// gateway reports.
	Boards []string

	// ReconcileInterval is how often the catalog re-syncs with the
	// gateway after the initial load.
	ReconcileInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconcileInterval: 5 * time.Minute,
	}
}

// Catalog is an in-memory securities reference-data cache kept in sync
// with the gateway. Reads are served from memory and never block on
// the network.
type Catalog struct {
	cfg    Config
	rest   *venue.Client
	logger *slog.Logger

	state *catalogState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCatalog creates a new securities catalog.
func NewCatalog(cfg Config, rest *venue.Client, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = DefaultConfig().ReconcileInterval
	}

	return &Catalog{
		cfg:    cfg,
		rest:   rest,
		logger: logger,
		state:  newState(),
	}
}

// Start loads the catalog from the gateway and begins background
// reconciliation. The initial load is blocking; an error means the
// gateway could not be reached and the catalog is empty.
func (c *Catalog) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	// Initial sync (blocking).
	if err := c.initialSync(c.ctx); err != nil {
		c.cancel()
		return err
	}

	// Start background reconciliation.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.reconcileLoop(c.ctx)
	}()

	c.logger.Info("securities catalog started",
		"securities", c.state.size(),
		"boards", c.cfg.Boards,
	)

	return nil
}

// Stop gracefully shuts down.
func (c *Catalog) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("securities catalog stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns the security for the given instrument.
func (c *Catalog) Get(inst model.Instrument) (model.Security, bool) {
	return c.state.get(inst)
}

// All returns a copy of every known security.
func (c *Catalog) All() []model.Security {
	return c.state.all()
}

// Len returns the number of known securities.
func (c *Catalog) Len() int {
	return c.state.size()
}

// LastSyncAt returns the time of the last successful gateway sync,
// zero if no sync has completed yet.
func (c *Catalog) LastSyncAt() time.Time {
	return c.state.syncedAt()
}
