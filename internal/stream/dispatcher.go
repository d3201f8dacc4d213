package stream

import (
	"fmt"
)

// consumeLoop delivers queued events to the handler one at a time, in
// arrival order. It exits once the queue is closed and drained.
func (c *Client) consumeLoop() {
	defer c.wg.Done()

	for {
		ev, ok := c.queue.Pop()
		if !ok {
			return
		}
		c.deliver(ev)
	}
}

// deliver invokes the handler with isolation: neither an error return nor
// a panic stops consumption, both are reported on the error channel.
func (c *Client) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked", "panic", r)
			c.emitError(fmt.Errorf("event handler panic: %v", r))
		}
	}()

	if err := c.handler.HandleEvent(ev); err != nil {
		c.emitError(fmt.Errorf("event handler: %w", err))
	}
}
