package stream

import (
	"sync"
)

// Queue is an unbounded FIFO hand-off between producers and consumers.
// The backing ring doubles once it reaches 70% occupancy, so Push never
// blocks; Pop blocks until an item arrives or the queue is closed and
// fully drained.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ring   []T
	head   int // read position
	tail   int // write position
	size   int
	closed bool

	// Counters for Stats
	totalIn  int64
	totalOut int64
	grows    int
}

// NewQueue creates a queue with the given initial capacity.
func NewQueue[T any](initial int) *Queue[T] {
	if initial < 1 {
		initial = 1
	}
	q := &Queue[T]{ring: make([]T, initial)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item. It returns false once the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	threshold := (len(q.ring) * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if q.size+1 >= threshold {
		q.grow()
	}

	q.ring[q.tail] = item
	q.tail = (q.tail + 1) % len(q.ring)
	q.size++
	q.totalIn++

	q.cond.Signal()
	return true
}

// Pop removes the oldest item, blocking until one is available. It returns
// false only after Close once the queue is empty, so close-then-drain
// delivers every accepted item.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// TryPop removes the oldest item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// pop removes one item. Lock must be held and size > 0.
func (q *Queue[T]) pop() T {
	item := q.ring[q.head]
	var zero T
	q.ring[q.head] = zero // release the reference
	q.head = (q.head + 1) % len(q.ring)
	q.size--
	q.totalOut++
	return item
}

// Close rejects further pushes and wakes all blocked Pop calls. Items
// already queued remain poppable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the current ring capacity.
func (q *Queue[T]) Cap() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ring)
}

// Stats returns a snapshot of queue counters.
func (q *Queue[T]) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Len:      q.size,
		Cap:      len(q.ring),
		TotalIn:  q.totalIn,
		TotalOut: q.totalOut,
		Grows:    q.grows,
	}
}

// QueueStats is a point-in-time view of a Queue.
type QueueStats struct {
	Len      int
	Cap      int
	TotalIn  int64
	TotalOut int64
	Grows    int
}

// grow doubles the ring. Lock must be held.
func (q *Queue[T]) grow() {
	next := make([]T, len(q.ring)*2)
	if q.size > 0 {
		if q.head < q.tail {
			copy(next, q.ring[q.head:q.tail])
		} else {
			n := copy(next, q.ring[q.head:])
			copy(next[n:], q.ring[:q.tail])
		}
	}
	q.ring = next
	q.head = 0
	q.tail = q.size
	q.grows++
}
