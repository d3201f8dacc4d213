package stream

import (
	"errors"
	"fmt"
	"time"
)

// reconnectLoop runs one recovery cycle: wait with exponential backoff,
// reopen, replay subscriptions. It ends in a healthy stream, a terminal
// Failed state once the attempt ceiling is exceeded, or shutdown. Only one
// run exists at a time; failures during the run feed back into the same
// loop instead of spawning another.
func (c *Client) reconnectLoop() {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		c.attempt++
		attempt := c.attempt
		c.mu.Unlock()

		if c.cfg.MaxAttempts > 0 && attempt > c.cfg.MaxAttempts {
			c.logger.Error("giving up on reconnect", "attempts", attempt-1)
			c.emitError(fmt.Errorf("%w after %d attempts", ErrGiveUp, attempt-1))
			c.emitStatus(Status{State: StateFailed})
			c.endReconnect()
			return
		}

		delay := backoffDelay(attempt, c.cfg.BackoffBase, c.cfg.BackoffMax)
		c.emitStatus(Status{State: StateReconnecting, Attempt: attempt})
		c.logger.Info("reconnecting", "attempt", attempt, "delay", delay)

		select {
		case <-c.ctx.Done():
			c.endReconnect()
			return
		case <-time.After(delay):
		}

		ch, err := c.dialer.Dial(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				c.endReconnect()
				return
			}
			c.logger.Warn("channel open failed", "attempt", attempt, "error", err)
			c.emitError(fmt.Errorf("open channel: %w", err))
			continue
		}
		if c.ctx.Err() != nil {
			ch.Close()
			c.endReconnect()
			return
		}

		gen := c.bindChannel(ch)
		c.wg.Add(1)
		go c.readLoop(ch, gen)

		if err := c.replay(); err != nil {
			// Abort the whole batch and retry from backoff; a half
			// replayed channel must not be reported healthy.
			c.logger.Warn("subscription replay failed", "attempt", attempt, "error", err)
			c.emitError(fmt.Errorf("replay subscriptions: %w", err))
			if failed := c.writer.take(gen); failed != nil {
				failed.Close()
			}
			continue
		}

		// The fresh channel can fail while the replay is still in flight;
		// that signal lands in pendingGen because this run holds the
		// guard. Re-check before declaring Done, and keep the guard,
		// state flip, and Connected status in one critical section so no
		// newer failure can interleave between them.
		c.mu.Lock()
		if c.pendingGen == gen {
			c.pendingGen = 0
			c.mu.Unlock()
			c.logger.Warn("channel failed before replay completed", "attempt", attempt)
			c.emitError(errors.New("channel failed before replay completed"))
			if failed := c.writer.take(gen); failed != nil {
				failed.Close()
			}
			continue
		}
		c.attempt = 0
		c.reconnecting = false
		c.pendingGen = 0
		if !c.closed {
			c.state = StateConnected
			select {
			case c.statusCh <- Status{State: StateConnected}:
			default:
			}
		}
		c.mu.Unlock()

		c.logger.Info("stream restored", "attempts", attempt, "subscriptions", c.registry.len())
		return
	}
}

// endReconnect clears the single-run guard.
func (c *Client) endReconnect() {
	c.mu.Lock()
	c.reconnecting = false
	c.pendingGen = 0
	c.mu.Unlock()
}

// replay re-sends every recorded subscription on the fresh channel, one
// frame at a time in key order.
func (c *Client) replay() error {
	for _, cmd := range c.registry.snapshot() {
		if err := c.writer.write(cmd); err != nil {
			return err
		}
	}
	return nil
}
