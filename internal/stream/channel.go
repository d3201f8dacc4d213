package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Channel is a single duplex link to the gateway's event stream.
type Channel interface {
	// Send writes one outbound frame. Not safe for concurrent use; the
	// client serializes all writes.
	Send(data []byte) error

	// Receive blocks until the next inbound frame arrives. It returns an
	// error once the link fails or the channel is closed.
	Receive() ([]byte, error)

	// Close tears the link down and unblocks a pending Receive. Safe to
	// call more than once.
	Close() error
}

// Dialer opens channels to the gateway.
type Dialer interface {
	Dial(ctx context.Context) (Channel, error)
}

// WSConfig configures the WebSocket dialer.
type WSConfig struct {
	URL              string        // wss endpoint of the gateway event stream
	Token            string        // Bearer token, empty = no Authorization header
	HandshakeTimeout time.Duration // Default 10s
	WriteTimeout     time.Duration // Per-frame write deadline. Default 5s.
	ReadTimeout      time.Duration // Per-frame read deadline. 0 = none.
}

type wsDialer struct {
	cfg WSConfig
}

// NewWebSocketDialer returns the production Dialer speaking WebSocket text
// frames with bearer authentication.
func NewWebSocketDialer(cfg WSConfig) Dialer {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &wsDialer{cfg: cfg}
}

func (d *wsDialer) Dial(ctx context.Context) (Channel, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if d.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+d.cfg.Token)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: d.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, d.cfg.URL, header)
	if err != nil {
		return nil, err
	}

	return &wsChannel{
		conn:         conn,
		writeTimeout: d.cfg.WriteTimeout,
		readTimeout:  d.cfg.ReadTimeout,
	}, nil
}

// wsChannel adapts a gorilla connection to Channel.
type wsChannel struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	readTimeout  time.Duration

	closeOnce sync.Once
	closeErr  error
}

func (ch *wsChannel) Send(data []byte) error {
	ch.conn.SetWriteDeadline(time.Now().Add(ch.writeTimeout))
	return ch.conn.WriteMessage(websocket.TextMessage, data)
}

func (ch *wsChannel) Receive() ([]byte, error) {
	if ch.readTimeout > 0 {
		ch.conn.SetReadDeadline(time.Now().Add(ch.readTimeout))
	}
	_, data, err := ch.conn.ReadMessage()
	return data, err
}

func (ch *wsChannel) Close() error {
	ch.closeOnce.Do(func() {
		// Best effort close frame; control writes are safe alongside Send.
		ch.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		ch.closeErr = ch.conn.Close()
	})
	return ch.closeErr
}
