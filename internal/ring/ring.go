// Package ring implements a bounded single-producer/single-consumer queue.
//
// The index arithmetic (power-of-two capacity, mask instead of modulo) is
// the same scheme the reference client used for its per-sender jitter
// buffer ring (see client/internal/jitter in the original corpus): a fixed
// array plus monotonically increasing head/tail counters masked into the
// array. Here the counters are atomics so one goroutine may push while a
// different goroutine pops without a lock.
package ring

import "sync/atomic"

// Ring is a fixed-capacity SPSC queue. The zero value is not usable; call
// New. T should be a small value type — Ring never allocates after
// construction, so pushing and popping never triggers the GC.
type Ring[T any] struct {
	buf  []T
	mask uint64

	// head is the next slot the producer will write. Only the producer
	// goroutine mutates it.
	head atomic.Uint64
	// tail is the next slot the consumer will read. Only the consumer
	// goroutine mutates it.
	tail atomic.Uint64
}

// New creates a Ring whose capacity is rounded up to the next power of two.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &Ring[T]{
		buf:  make([]T, n),
		mask: uint64(n - 1),
	}
}

// Cap returns the ring's fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Len returns the number of queued-but-not-yet-popped items. Safe to call
// from either side; the result may be stale by the time it is read.
func (r *Ring[T]) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// TryPush appends v. It returns false without blocking if the ring is full.
// Producer-only.
func (r *Ring[T]) TryPush(v T) bool {
	head := r.head.Load()
	tail := r.tail.Load() // acquire: see everything the consumer has freed
	if head-tail >= uint64(len(r.buf)) {
		return false
	}
	r.buf[head&r.mask] = v
	r.head.Store(head + 1) // release: publish the new element
	return true
}

// TryPop removes and returns the oldest item. It returns false without
// blocking if the ring is empty. Consumer-only.
func (r *Ring[T]) TryPop() (T, bool) {
	tail := r.tail.Load()
	head := r.head.Load() // acquire: see everything the producer has published
	if tail == head {
		var zero T
		return zero, false
	}
	v := r.buf[tail&r.mask]
	r.tail.Store(tail + 1) // release: free the slot
	return v, true
}
