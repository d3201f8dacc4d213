package refdata

import (
	"context"
	"time"

	"tradebridge/internal/model"
	"tradebridge/internal/venue"
)

// initialSync fetches reference data from the gateway on startup.
func (c *Catalog) initialSync(ctx context.Context) error {
	c.logger.Info("starting initial securities sync")
	start := time.Now()

	securities, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	c.state.mu.Lock()
	for _, sec := range securities {
		c.state.upsertLocked(sec)
	}
	c.state.lastSyncAt = time.Now()
	c.state.mu.Unlock()

	c.logger.Info("initial securities sync complete",
		"count", len(securities),
		"duration", time.Since(start),
	)

	return nil
}

// reconcileLoop periodically re-syncs with the gateway.
func (c *Catalog) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reconcile(ctx)
		}
	}
}

// reconcile fetches reference data and folds changes into the catalog.
// Delisted securities stay cached with Active=false from the gateway;
// the catalog never forgets an instrument it has served.
func (c *Catalog) reconcile(ctx context.Context) {
	start := time.Now()

	securities, err := c.fetch(ctx)
	if err != nil {
		c.logger.Error("securities reconciliation failed", "error", err)
		return
	}

	var added, updated int

	c.state.mu.Lock()
	for _, sec := range securities {
		key := sec.Instrument().String()
		existing, ok := c.state.securities[key]

		if !ok {
			c.state.upsertLocked(sec)
			added++
			continue
		}

		if !secEqual(*existing, sec) {
			c.state.upsertLocked(sec)
			updated++
		}
	}
	c.state.lastSyncAt = time.Now()
	c.state.mu.Unlock()

	if added > 0 || updated > 0 {
		c.logger.Info("securities reconciliation found changes",
			"added", added,
			"updated", updated,
			"duration", time.Since(start),
		)
	} else {
		c.logger.Debug("securities reconciliation complete",
			"count", len(securities),
			"duration", time.Since(start),
		)
	}
}

// secEqual compares two securities field by field. Decimal fields
// compare by value, not by their internal pointer.
func secEqual(a, b model.Security) bool {
	return a.Board == b.Board &&
		a.Seccode == b.Seccode &&
		a.ShortName == b.ShortName &&
		a.Market == b.Market &&
		a.Currency == b.Currency &&
		a.LotSize == b.LotSize &&
		a.Decimals == b.Decimals &&
		a.MinStep.Equal(b.MinStep) &&
		a.Active == b.Active
}

// fetch pulls reference data for the configured boards. With no boards
// configured a single unfiltered request loads everything.
func (c *Catalog) fetch(ctx context.Context) ([]model.Security, error) {
	if len(c.cfg.Boards) == 0 {
		return c.rest.Securities(ctx, venue.SecuritiesFilter{})
	}

	var all []model.Security
	for _, board := range c.cfg.Boards {
		secs, err := c.rest.Securities(ctx, venue.SecuritiesFilter{Board: board})
		if err != nil {
			return nil, err
		}
		all = append(all, secs...)
	}
	return all, nil
}
