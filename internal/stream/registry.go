package stream

import (
	"sort"
	"sync"
)

// registry records subscription intent per key. It is the source of truth
// for what must be replayed after a reconnect: the last subscribe command
// for each key, with unsubscribed keys absent.
type registry struct {
	mu      sync.RWMutex
	entries map[Key]Command
}

func newRegistry() *registry {
	return &registry{entries: make(map[Key]Command)}
}

// put records or overwrites the subscribe command for a key.
func (r *registry) put(k Key, cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[k] = cmd
}

// remove deletes a key. Removing an absent key is a no-op.
func (r *registry) remove(k Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, k)
}

// snapshot returns the recorded commands in key order, so replay is
// deterministic.
func (r *registry) snapshot() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	cmds := make([]Command, 0, len(keys))
	for _, k := range keys {
		cmds = append(cmds, r.entries[k])
	}
	return cmds
}

// keys returns the recorded keys in sorted order.
func (r *registry) keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
