package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// closeWait bounds how long Close waits for stream goroutines to exit.
const closeWait = 5 * time.Second

// Client maintains one logical stream to the gateway. It owns a single
// channel at a time; failed channels are replaced by the reconnector and
// recorded subscriptions are replayed before the stream is reported
// healthy again.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	dialer  Dialer
	handler Handler

	registry *registry
	writer   *streamWriter
	queue    *Queue[Event]

	statusCh chan Status
	errorCh  chan error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.RWMutex
	started      bool
	closed       bool
	gen          uint64 // current channel generation
	reconnecting bool   // single-run reconnector guard
	pendingGen   uint64 // generation that failed while a run was active, 0 = none
	attempt      int    // consecutive failed reconnect attempts
	lastFailure  time.Time
	state        State
}

// New validates the configuration and builds a Client. The stream does not
// open until Connect.
func New(cfg Config) (*Client, error) {
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("%w: dialer is required", ErrInvalidArgument)
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("%w: handler is required", ErrInvalidArgument)
	}
	cfg = cfg.withDefaults()

	c := &Client{
		cfg:      cfg,
		logger:   cfg.Logger,
		dialer:   cfg.Dialer,
		handler:  cfg.Handler,
		registry: newRegistry(),
		writer:   &streamWriter{},
		queue:    NewQueue[Event](cfg.QueueSize),
		statusCh: make(chan Status, cfg.StatusBuffer),
		errorCh:  make(chan error, cfg.ErrorBuffer),
	}
	c.writer.onFailure = c.signalFailure
	return c, nil
}

// Connect opens the initial channel and starts the stream. The first open
// is not retried: on error the client stays idle and Connect may be called
// again. Once connected, channel failures are handled by the reconnector
// until Close or StateFailed.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	runCtx := c.ctx
	c.mu.Unlock()

	ch, err := c.dialer.Dial(runCtx)
	if err != nil {
		c.mu.Lock()
		c.started = false
		cancel := c.cancel
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("open channel: %w", err)
	}

	gen := c.bindChannel(ch)

	c.wg.Add(3)
	go c.consumeLoop()
	go c.readLoop(ch, gen)
	go c.watchContext()

	// Subscriptions recorded while disconnected are sent now. A send
	// failure here has already handed the channel to the reconnector, so
	// the stream is running, just not healthy yet.
	if err := c.replay(); err != nil {
		c.logger.Warn("replaying recorded subscriptions failed", "error", err)
		return nil
	}

	// A failure can race this flip. Once the reconnector owns the stream
	// it also owns the status, so only a still-live generation reports
	// Connected here.
	c.mu.Lock()
	if !c.closed && !c.reconnecting && gen == c.gen {
		c.state = StateConnected
		select {
		case c.statusCh <- Status{State: StateConnected}:
		default:
		}
	}
	c.mu.Unlock()

	c.logger.Info("stream connected")
	return nil
}

// Close shuts the stream down: cancels all loops, closes the live channel,
// lets the consumer drain queued events, then closes the notification
// channels after a final Disconnected status. Close is idempotent and a
// write attempted afterwards fails with ErrChannelClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateDisconnected
	started := c.started
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.queue.Close()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(closeWait):
		c.logger.Warn("timed out waiting for stream goroutines")
	}

	c.mu.Lock()
	if started {
		select {
		case c.statusCh <- Status{State: StateDisconnected}:
		default:
		}
	}
	close(c.statusCh)
	close(c.errorCh)
	c.mu.Unlock()

	c.logger.Info("stream closed")
	return nil
}

// Status returns connection state notifications. Sends are fire and forget;
// the channel is closed by Close after a final Disconnected.
func (c *Client) Status() <-chan Status {
	return c.statusCh
}

// Errors returns background failures: channel breaks, failed reopens,
// replay failures, handler errors. The channel is closed by Close.
func (c *Client) Errors() <-chan error {
	return c.errorCh
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscriptions returns the recorded subscription keys in sorted order.
func (c *Client) Subscriptions() []Key {
	return c.registry.keys()
}

// ClientStats is a point-in-time view of the stream.
type ClientStats struct {
	State         State
	Attempt       int
	LastFailureAt time.Time // Zero until the first channel failure
	Subscriptions int
	Queue         QueueStats
}

// Stats returns current stream statistics.
func (c *Client) Stats() ClientStats {
	c.mu.RLock()
	state, attempt, lastFailure := c.state, c.attempt, c.lastFailure
	c.mu.RUnlock()

	return ClientStats{
		State:         state,
		Attempt:       attempt,
		LastFailureAt: lastFailure,
		Subscriptions: c.registry.len(),
		Queue:         c.queue.Stats(),
	}
}

// bindChannel makes ch the current session and returns its generation.
// Frames and failure signals carrying an older generation are ignored.
func (c *Client) bindChannel(ch Channel) uint64 {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.writer.bind(ch, gen)
	return gen
}

// readLoop drains one channel until it fails, is superseded, or the client
// shuts down.
func (c *Client) readLoop(ch Channel, gen uint64) {
	defer c.wg.Done()

	for {
		data, err := ch.Receive()
		receivedAt := time.Now()
		if err != nil {
			if c.ctx.Err() != nil {
				// Intentional shutdown, not a failure.
				return
			}
			c.signalFailure(gen, err)
			return
		}
		if !c.pushEvent(Event{Data: data, ReceivedAt: receivedAt}, gen) {
			return
		}
	}
}

// pushEvent enqueues one inbound frame read by the session with generation
// gen. The client lock is held across the push, so a frame from a
// superseded reader cannot land in the queue after a new session binds.
func (c *Client) pushEvent(ev Event, gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if gen != c.gen || c.closed {
		return false
	}
	c.queue.Push(ev)
	return true
}

// signalFailure starts the reconnector for a failed generation. Signals
// from superseded generations are dropped. A signal for the live
// generation arriving while a run is already active is recorded instead
// of starting a second run; the active run re-checks it before declaring
// the stream healthy, so concurrent read and write failures fold into one
// run without a failure on a freshly opened channel being lost.
func (c *Client) signalFailure(gen uint64, cause error) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.ctx == nil || c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	if c.reconnecting {
		c.pendingGen = gen
		c.mu.Unlock()
		c.logger.Debug("channel failed during reconnect", "error", cause)
		return
	}
	c.reconnecting = true
	c.lastFailure = time.Now()
	c.wg.Add(1)
	c.mu.Unlock()

	if ch := c.writer.take(gen); ch != nil {
		ch.Close()
	}

	c.logger.Warn("stream channel failed", "error", cause)
	c.emitError(fmt.Errorf("channel failed: %w", cause))
	c.emitStatus(Status{State: StateDisconnected})

	go c.reconnectLoop()
}

// watchContext closes the live channel once the lifecycle context ends,
// which unblocks a reader stuck in Receive.
func (c *Client) watchContext() {
	defer c.wg.Done()

	<-c.ctx.Done()
	if ch := c.writer.takeAny(); ch != nil {
		ch.Close()
	}
}

// emitStatus records and broadcasts a state change. The send never blocks;
// a full buffer drops the notification.
func (c *Client) emitStatus(st Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.state = st.State
	select {
	case c.statusCh <- st:
	default:
		c.logger.Debug("status buffer full, dropping", "state", st.State)
	}
}

// emitError reports a background failure without blocking.
func (c *Client) emitError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.errorCh <- err:
	default:
	}
}
