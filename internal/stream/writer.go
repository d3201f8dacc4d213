package stream

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// streamWriter serializes all outbound traffic onto the currently bound
// channel. The mutex is held across the whole send, so at most one frame
// is in flight and frame bytes never interleave.
type streamWriter struct {
	mu  sync.Mutex
	ch  Channel
	gen uint64

	// onFailure is invoked outside the lock when a send fails, with the
	// generation of the channel that failed.
	onFailure func(gen uint64, err error)
}

// bind installs a new channel and its generation, replacing any previous one.
func (w *streamWriter) bind(ch Channel, gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ch = ch
	w.gen = gen
}

// take unbinds and returns the channel if the given generation is still
// bound, nil otherwise.
func (w *streamWriter) take(gen uint64) Channel {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ch == nil || w.gen != gen {
		return nil
	}
	ch := w.ch
	w.ch = nil
	return ch
}

// takeAny unbinds and returns whatever channel is bound, if any.
func (w *streamWriter) takeAny() Channel {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := w.ch
	w.ch = nil
	return ch
}

// write stamps a fresh request id on the command and sends it. Without a
// bound channel it fails with ErrChannelClosed; a send failure is also
// reported through onFailure.
func (w *streamWriter) write(cmd Command) error {
	cmd.RequestID = uuid.NewString()
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal %s command: %w", cmd.Op, err)
	}

	w.mu.Lock()
	ch, gen := w.ch, w.gen
	if ch == nil {
		w.mu.Unlock()
		return ErrChannelClosed
	}
	err = ch.Send(data)
	w.mu.Unlock()

	if err != nil {
		if w.onFailure != nil {
			w.onFailure(gen, err)
		}
		return fmt.Errorf("send %s: %w", cmd.Op, err)
	}
	return nil
}
