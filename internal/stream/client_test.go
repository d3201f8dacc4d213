package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeChannel is a scriptable in-memory Channel. Inbound frames are staged
// with push, outbound frames land on sent, and Close or a send-failure flag
// simulate link breakage.
type fakeChannel struct {
	in   chan []byte
	sent chan []byte

	closed    chan struct{}
	closeOnce sync.Once

	recvDead chan struct{} // closed to fail Receive while Send still works
	recvOnce sync.Once

	mu        sync.Mutex
	failSends bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		in:       make(chan []byte, 64),
		sent:     make(chan []byte, 64),
		closed:   make(chan struct{}),
		recvDead: make(chan struct{}),
	}
}

func (f *fakeChannel) Send(data []byte) error {
	f.mu.Lock()
	fail := f.failSends
	f.mu.Unlock()
	if fail {
		return errors.New("send failed")
	}
	select {
	case <-f.closed:
		return errors.New("channel closed")
	default:
	}

	cp := append([]byte(nil), data...)
	select {
	case f.sent <- cp:
	default:
	}
	return nil
}

func (f *fakeChannel) Receive() ([]byte, error) {
	select {
	case data := <-f.in:
		return data, nil
	case <-f.closed:
		return nil, errors.New("channel closed")
	case <-f.recvDead:
		return nil, errors.New("link reset")
	}
}

func (f *fakeChannel) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeChannel) push(data []byte) {
	f.in <- data
}

func (f *fakeChannel) breakSends() {
	f.mu.Lock()
	f.failSends = true
	f.mu.Unlock()
}

func (f *fakeChannel) breakReceives() {
	f.recvOnce.Do(func() { close(f.recvDead) })
}

// fakeDialer hands out scripted channels in order; a nil entry is a dial
// error, and an exhausted script always errors.
type fakeDialer struct {
	mu    sync.Mutex
	chans []*fakeChannel
	calls int
}

func newFakeDialer(chans ...*fakeChannel) *fakeDialer {
	return &fakeDialer{chans: chans}
}

func (d *fakeDialer) Dial(ctx context.Context) (Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.calls > len(d.chans) {
		return nil, errors.New("dial failed: no endpoint")
	}
	ch := d.chans[d.calls-1]
	if ch == nil {
		return nil, errors.New("dial failed")
	}
	return ch, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// collectHandler records delivered events.
type collectHandler struct {
	events chan Event
}

func newCollectHandler() *collectHandler {
	return &collectHandler{events: make(chan Event, 64)}
}

func (h *collectHandler) HandleEvent(ev Event) error {
	h.events <- ev
	return nil
}

func newTestClient(t *testing.T, d Dialer, h Handler) *Client {
	t.Helper()
	c, err := New(Config{
		Dialer:      d,
		Handler:     h,
		BackoffBase: 5 * time.Millisecond,
		BackoffMax:  20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

// waitState reads statuses until the wanted state arrives.
func waitState(t *testing.T, c *Client, want State) Status {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st, ok := <-c.Status():
			if !ok {
				t.Fatalf("status channel closed while waiting for %v", want)
			}
			if st.State == want {
				return st
			}
		case <-deadline:
			t.Fatalf("timeout waiting for status %v", want)
		}
	}
}

// recvFrame decodes the next outbound frame from a fake channel.
func recvFrame(t *testing.T, ch *fakeChannel) Command {
	t.Helper()
	select {
	case data := <-ch.sent:
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			t.Fatalf("unmarshal outbound frame: %v", err)
		}
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for outbound frame")
		return Command{}
	}
}

func TestClient_ConnectAndClose(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	st := waitState(t, c, StateConnected)
	if st.Attempt != 0 {
		t.Errorf("Attempt = %d, want 0", st.Attempt)
	}
	if c.State() != StateConnected {
		t.Errorf("State() = %v, want %v", c.State(), StateConnected)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if c.State() != StateDisconnected {
		t.Errorf("State() after Close = %v, want %v", c.State(), StateDisconnected)
	}
}

func TestClient_CloseClosesNotificationChannels(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitState(t, c, StateConnected)

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Drain: the last status must be Disconnected, then the channel closes.
	var last Status
	for st := range c.Status() {
		last = st
	}
	if last.State != StateDisconnected {
		t.Errorf("last status = %v, want %v", last.State, StateDisconnected)
	}
	if _, ok := <-c.Errors(); ok {
		t.Error("Errors() still open after Close")
	}
}

func TestClient_ConnectTwice(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	if err := c.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect = %v, want ErrAlreadyConnected", err)
	}
}

func TestClient_ConnectAfterClose(t *testing.T) {
	c := newTestClient(t, newFakeDialer(), newCollectHandler())
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := c.Connect(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Connect after Close = %v, want ErrClosed", err)
	}
}

func TestClient_InitialDialFailureNotRetried(t *testing.T) {
	ch2 := newFakeChannel()
	d := newFakeDialer(nil, ch2) // first dial errors
	c := newTestClient(t, d, newCollectHandler())

	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("Connect on failing dial = nil, want error")
	}
	// Exactly one dial: the initial open is the caller's to retry.
	if d.dials() != 1 {
		t.Errorf("dials = %d, want 1", d.dials())
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("retried Connect failed: %v", err)
	}
	defer c.Close()
	waitState(t, c, StateConnected)
}

func TestClient_NewValidation(t *testing.T) {
	if _, err := New(Config{Handler: newCollectHandler()}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("New without dialer = %v, want ErrInvalidArgument", err)
	}
	if _, err := New(Config{Dialer: newFakeDialer()}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("New without handler = %v, want ErrInvalidArgument", err)
	}
}

func TestClient_SubscribeWritesCommand(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	if err := c.SubscribeOrderBook("TQBR", "SBER"); err != nil {
		t.Fatalf("SubscribeOrderBook failed: %v", err)
	}

	cmd := recvFrame(t, ch1)
	if cmd.Op != "subscribe" || cmd.Kind != "orderbook" {
		t.Errorf("frame op/kind = %s/%s, want subscribe/orderbook", cmd.Op, cmd.Kind)
	}
	if cmd.Board != "TQBR" || cmd.Seccode != "SBER" {
		t.Errorf("frame instrument = %s:%s, want TQBR:SBER", cmd.Board, cmd.Seccode)
	}
	if cmd.Depth != DefaultOrderBookDepth {
		t.Errorf("Depth = %d, want %d", cmd.Depth, DefaultOrderBookDepth)
	}
	if _, err := uuid.Parse(cmd.RequestID); err != nil {
		t.Errorf("RequestID %q is not a UUID: %v", cmd.RequestID, err)
	}

	keys := c.Subscriptions()
	if len(keys) != 1 || keys[0] != "orderbook:TQBR:SBER" {
		t.Errorf("Subscriptions() = %v, want [orderbook:TQBR:SBER]", keys)
	}
}

func TestClient_SubscribeValidation(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())

	if err := c.SubscribeOrderBook("", "SBER"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty board = %v, want ErrInvalidArgument", err)
	}
	if err := c.SubscribeOrderTrade(OrderTradeRequest{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty client ids = %v, want ErrInvalidArgument", err)
	}
	if err := c.SubscribeOrderTrade(OrderTradeRequest{ClientIDs: []string{"D1", ""}}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("blank client id = %v, want ErrInvalidArgument", err)
	}
	// Nothing recorded, nothing sent.
	if n := len(c.Subscriptions()); n != 0 {
		t.Errorf("Subscriptions() has %d entries, want 0", n)
	}
	c.Close()
}

func TestClient_SubscribeWhileDisconnected(t *testing.T) {
	c := newTestClient(t, newFakeDialer(), newCollectHandler())
	defer c.Close()

	err := c.SubscribeOrderBook("TQBR", "SBER")
	if !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("SubscribeOrderBook = %v, want ErrChannelClosed", err)
	}
	// Intent is recorded first, so it will replay once connected.
	keys := c.Subscriptions()
	if len(keys) != 1 || keys[0] != "orderbook:TQBR:SBER" {
		t.Errorf("Subscriptions() = %v, want [orderbook:TQBR:SBER]", keys)
	}
}

func TestClient_ConnectSendsRecordedIntent(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())
	defer c.Close()

	if err := c.SubscribeOrderBook("TQBR", "SBER"); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("SubscribeOrderBook = %v, want ErrChannelClosed", err)
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	cmd := recvFrame(t, ch1)
	if cmd.Op != "subscribe" || cmd.Kind != "orderbook" {
		t.Errorf("frame = %s %s, want subscribe orderbook", cmd.Op, cmd.Kind)
	}
	if cmd.Board != "TQBR" || cmd.Seccode != "SBER" {
		t.Errorf("frame instrument = %s:%s, want TQBR:SBER", cmd.Board, cmd.Seccode)
	}
}

func TestClient_KeepAlive(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	if err := c.SendKeepAlive(); err != nil {
		t.Fatalf("SendKeepAlive failed: %v", err)
	}
	cmd := recvFrame(t, ch1)
	if cmd.Op != "keepalive" {
		t.Errorf("Op = %s, want keepalive", cmd.Op)
	}
	if cmd.RequestID == "" {
		t.Error("RequestID is empty")
	}
}

func TestClient_EventsFlowInOrder(t *testing.T) {
	ch1 := newFakeChannel()
	h := newCollectHandler()
	c := newTestClient(t, newFakeDialer(ch1), h)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	frames := []string{
		`{"event":"orderbook","seq":1}`,
		`{"event":"orderbook","seq":2}`,
		`{"event":"trade","seq":3}`,
	}
	for _, f := range frames {
		ch1.push([]byte(f))
	}

	for i, want := range frames {
		select {
		case ev := <-h.events:
			if string(ev.Data) != want {
				t.Errorf("event %d = %q, want %q", i, ev.Data, want)
			}
			if ev.ReceivedAt.IsZero() {
				t.Error("ReceivedAt is zero")
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for event %d", i)
		}
	}
}

func TestClient_CloseDeliversAcceptedEvents(t *testing.T) {
	ch1 := newFakeChannel()
	h := newCollectHandler()
	c := newTestClient(t, newFakeDialer(ch1), h)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	const n = 10
	for i := 0; i < n; i++ {
		ch1.push([]byte(`{"event":"orderbook"}`))
	}

	// Wait until the reader has accepted all frames into the queue.
	deadline := time.Now().Add(2 * time.Second)
	for c.Stats().Queue.TotalIn < n {
		if time.Now().After(deadline) {
			t.Fatalf("queue accepted %d frames, want %d", c.Stats().Queue.TotalIn, n)
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Every accepted frame was delivered before Close returned.
	if got := len(h.events); got != n {
		t.Errorf("delivered %d events, want %d", got, n)
	}
}

func TestClient_ReconnectReplaysSubscriptions(t *testing.T) {
	ch1 := newFakeChannel()
	ch2 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1, ch2), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()
	waitState(t, c, StateConnected)

	if err := c.SubscribeOrderBook("TQBR", "SBER"); err != nil {
		t.Fatalf("subscribe SBER: %v", err)
	}
	if err := c.SubscribeOrderBook("TQBR", "GAZP"); err != nil {
		t.Fatalf("subscribe GAZP: %v", err)
	}
	first := recvFrame(t, ch1)
	recvFrame(t, ch1)

	ch1.Close() // link drops
	waitState(t, c, StateConnected)

	// Replay arrives on the new channel in key order with fresh request ids.
	replay1 := recvFrame(t, ch2)
	replay2 := recvFrame(t, ch2)
	if replay1.Seccode != "GAZP" || replay2.Seccode != "SBER" {
		t.Errorf("replay order = [%s %s], want [GAZP SBER]", replay1.Seccode, replay2.Seccode)
	}
	if replay1.Op != "subscribe" || replay2.Op != "subscribe" {
		t.Errorf("replay ops = [%s %s], want both subscribe", replay1.Op, replay2.Op)
	}
	if replay2.RequestID == first.RequestID {
		t.Error("replay reused the original request id")
	}

	// Registry unchanged by the reconnect.
	if n := len(c.Subscriptions()); n != 2 {
		t.Errorf("Subscriptions() has %d entries, want 2", n)
	}
}

func TestClient_UnsubscribedKeyNotReplayed(t *testing.T) {
	ch1 := newFakeChannel()
	ch2 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1, ch2), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	c.SubscribeOrderBook("TQBR", "SBER")
	c.SubscribeOrderBook("TQBR", "GAZP")
	c.UnsubscribeOrderBook("TQBR", "GAZP")

	ch1.Close()
	waitState(t, c, StateConnected)

	replay := recvFrame(t, ch2)
	if replay.Seccode != "SBER" {
		t.Errorf("replayed %s, want SBER", replay.Seccode)
	}
	select {
	case data := <-ch2.sent:
		t.Errorf("unexpected extra replay frame: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClient_StatusSequenceOnReconnect(t *testing.T) {
	ch1 := newFakeChannel()
	ch2 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1, ch2), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	ch1.Close()

	want := []Status{
		{State: StateConnected},
		{State: StateDisconnected},
		{State: StateReconnecting, Attempt: 1},
		{State: StateConnected},
	}
	for i, w := range want {
		select {
		case st := <-c.Status():
			if st != w {
				t.Fatalf("status[%d] = %+v, want %+v", i, st, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for status[%d] %+v", i, w)
		}
	}
}

func TestClient_BackoffCeilingEntersFailed(t *testing.T) {
	ch1 := newFakeChannel()
	d := newFakeDialer(ch1) // every reconnect dial fails
	c, err := New(Config{
		Dialer:      d,
		Handler:     newCollectHandler(),
		BackoffBase: 5 * time.Millisecond,
		BackoffMax:  10 * time.Millisecond,
		MaxAttempts: 2,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	ch1.Close()
	waitState(t, c, StateFailed)

	if c.State() != StateFailed {
		t.Errorf("State() = %v, want %v", c.State(), StateFailed)
	}
	// Initial dial plus two reconnect attempts.
	if d.dials() != 3 {
		t.Errorf("dials = %d, want 3", d.dials())
	}

	var sawGiveUp bool
	for done := false; !done; {
		select {
		case err := <-c.Errors():
			if errors.Is(err, ErrGiveUp) {
				sawGiveUp = true
				done = true
			}
		case <-time.After(time.Second):
			done = true
		}
	}
	if !sawGiveUp {
		t.Error("ErrGiveUp not reported on the error channel")
	}

	// Terminal: writes now fail fast.
	if err := c.SendKeepAlive(); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("SendKeepAlive after Failed = %v, want ErrChannelClosed", err)
	}
}

func TestClient_ReplayFailureReentersBackoff(t *testing.T) {
	ch1 := newFakeChannel()
	ch2 := newFakeChannel()
	ch3 := newFakeChannel()
	ch2.breakSends() // reopen succeeds, replay fails
	c := newTestClient(t, newFakeDialer(ch1, ch2, ch3), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	if err := c.SubscribeOrderBook("TQBR", "SBER"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	recvFrame(t, ch1)

	ch1.Close()
	st := waitState(t, c, StateConnected)
	if st.State != StateConnected {
		t.Fatalf("stream not restored: %+v", st)
	}

	// The failed replay consumed attempt 1; success came on attempt 2.
	replay := recvFrame(t, ch3)
	if replay.Seccode != "SBER" {
		t.Errorf("replayed %s on third channel, want SBER", replay.Seccode)
	}
	if c.Stats().Attempt != 0 {
		t.Errorf("attempt counter = %d, want 0 after recovery", c.Stats().Attempt)
	}
}

func TestClient_DeadReopenedChannelNotReportedHealthy(t *testing.T) {
	ch1 := newFakeChannel()
	ch2 := newFakeChannel()
	ch3 := newFakeChannel()
	ch2.breakReceives() // reopen succeeds and accepts the replay, but the link is already dead
	d := newFakeDialer(ch1, ch2, ch3)
	c := newTestClient(t, d, newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	if err := c.SubscribeOrderBook("TQBR", "SBER"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	recvFrame(t, ch1)

	ch1.Close()

	// The reader on the second channel fails as soon as it starts. That
	// signal must not be swallowed by the active reconnect run: the
	// client has to dial a third time and only then settle on Connected.
	deadline := time.Now().Add(2 * time.Second)
	for d.dials() < 3 || c.State() != StateConnected {
		if time.Now().After(deadline) {
			t.Fatalf("dials = %d, state = %v; want 3 dials and %v",
				d.dials(), c.State(), StateConnected)
		}
		time.Sleep(time.Millisecond)
	}

	replay := recvFrame(t, ch3)
	if replay.Seccode != "SBER" {
		t.Errorf("replayed %s on third channel, want SBER", replay.Seccode)
	}
	if got := c.Stats().Attempt; got != 0 {
		t.Errorf("attempt counter = %d, want 0 after recovery", got)
	}
}

func TestClient_WriteFailureTriggersReconnect(t *testing.T) {
	ch1 := newFakeChannel()
	ch2 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1, ch2), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()
	waitState(t, c, StateConnected)

	ch1.breakSends()
	if err := c.SendKeepAlive(); err == nil {
		t.Fatal("SendKeepAlive on broken channel = nil, want error")
	}

	// The failed write signalled the reconnector.
	waitState(t, c, StateConnected)
	d := c.Stats()
	if d.State != StateConnected {
		t.Errorf("State = %v, want %v", d.State, StateConnected)
	}
	if d.LastFailureAt.IsZero() {
		t.Error("LastFailureAt is zero after a channel failure")
	}
}

func TestClient_StaleSessionFramesDropped(t *testing.T) {
	ch1 := newFakeChannel()
	h := newCollectHandler()
	c := newTestClient(t, newFakeDialer(ch1), h)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()
	waitState(t, c, StateConnected)

	// Supersede the live channel, then let the old reader pull one frame.
	ch2 := newFakeChannel()
	c.bindChannel(ch2)
	ch1.push([]byte(`{"event":"orderbook"}`))

	select {
	case ev := <-h.events:
		t.Fatalf("stale frame delivered: %s", ev.Data)
	case <-time.After(100 * time.Millisecond):
	}

	ch1.Close()
}

func TestClient_SupersededReaderCannotEnqueue(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()
	waitState(t, c, StateConnected)

	c.mu.RLock()
	oldGen := c.gen
	c.mu.RUnlock()
	before := c.Stats().Queue.TotalIn

	// Bind a new session; a frame the old reader pulled just before being
	// superseded must bounce off the generation check inside the push.
	c.bindChannel(newFakeChannel())

	if c.pushEvent(Event{Data: []byte(`{"event":"orderbook"}`)}, oldGen) {
		t.Error("pushEvent accepted a frame from a superseded generation")
	}
	if got := c.Stats().Queue.TotalIn; got != before {
		t.Errorf("queue accepted %d frames, want %d", got, before)
	}

	ch1.Close()
}

func TestClient_WriteAfterCloseFails(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := c.SubscribeOrderBook("TQBR", "SBER"); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("SubscribeOrderBook after Close = %v, want ErrChannelClosed", err)
	}
}

func TestClient_CloseDuringBackoffReturnsPromptly(t *testing.T) {
	ch1 := newFakeChannel()
	c, err := New(Config{
		Dialer:      newFakeDialer(ch1),
		Handler:     newCollectHandler(),
		BackoffBase: 10 * time.Second, // long wait the shutdown must cut short
		BackoffMax:  10 * time.Second,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ch1.Close()
	waitState(t, c, StateReconnecting)

	start := time.Now()
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Close took %v, want prompt return from backoff wait", elapsed)
	}
}

func TestClient_ConcurrentSubscribes(t *testing.T) {
	ch1 := newFakeChannel()
	c := newTestClient(t, newFakeDialer(ch1), newCollectHandler())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	seccodes := []string{"SBER", "GAZP", "LKOH", "ROSN", "NVTK", "TATN", "MGNT", "YDEX"}
	var wg sync.WaitGroup
	for _, sec := range seccodes {
		wg.Add(1)
		go func(sec string) {
			defer wg.Done()
			if err := c.SubscribeOrderBook("TQBR", sec); err != nil {
				t.Errorf("subscribe %s: %v", sec, err)
			}
		}(sec)
	}
	wg.Wait()

	// Every frame arrived whole and well formed.
	for range seccodes {
		cmd := recvFrame(t, ch1)
		if cmd.Op != "subscribe" || cmd.Board != "TQBR" {
			t.Errorf("frame = %+v, want subscribe on TQBR", cmd)
		}
	}
	if n := len(c.Subscriptions()); n != len(seccodes) {
		t.Errorf("Subscriptions() has %d entries, want %d", n, len(seccodes))
	}
}
