// Package queue implements the bounded, lock-free, wait-free single-producer
// single-consumer ring buffer that connects every pipeline stage. Grounded
// on original_source/src/core/spsc.rs's SpscQueue, re-expressed with the
// cached-index optimization and cache-line padding convention from
// _examples/hayabusa-cloud-lfq/spsc.go's SPSC[T]: each side keeps a cached
// view of the other side's index so that the common case (room to push,
// data to pop) never touches the cross-core-shared atomic at all.
//
// Go's sync/atomic is sequentially consistent, strictly stronger than the
// Acquire/Release pairing the original relies on; this package does not
// depend on atomix (an internal, non-public module) the way the lfq package
// does, since stdlib atomics already satisfy every ordering the algorithm
// needs.
package queue

import (
	"sync/atomic"

	"github.com/tradsys-hft/pipeline/pkg/errors"
)

// cacheLinePad occupies a full cache line so that the fields on either side
// of it never share a line with it, avoiding false sharing between the
// producer-owned and consumer-owned halves of the struct.
type cacheLinePad [64]byte

// SPSC is a bounded ring buffer with exactly one producer and one consumer.
// The zero value is not usable; construct with NewSPSC.
type SPSC[T any] struct {
	_          cacheLinePad
	head       atomic.Uint64 // consumer-owned; read by producer under cachedHead miss
	_          cacheLinePad
	cachedTail uint64 // consumer's cached view of tail; consumer-local, no atomic needed
	_          cacheLinePad
	tail       atomic.Uint64 // producer-owned; read by consumer under cachedTail miss
	_          cacheLinePad
	cachedHead uint64 // producer's cached view of head; producer-local, no atomic needed
	_          cacheLinePad
	buffer     []T
	mask       uint64
}

// NewSPSC constructs a queue of the given capacity, which must be a power of
// two greater than zero. Returns an error rather than panicking so that
// stage construction (internal/pipeline) can fail gracefully on bad config.
func NewSPSC[T any](capacity int) (*SPSC[T], error) {
	if capacity <= 0 {
		return nil, errors.Newf(errors.ErrInvalidQueueCapacity, "capacity must be greater than 0, got %d", capacity)
	}
	if capacity&(capacity-1) != 0 {
		return nil, errors.Newf(errors.ErrInvalidQueueCapacity, "capacity must be a power of 2, got %d", capacity)
	}

	return &SPSC[T]{
		buffer: make([]T, capacity),
		mask:   uint64(capacity - 1),
	}, nil
}

// Push enqueues value. Called from the single producer goroutine only. On
// success it returns a zero value and true; on a full queue it returns the
// value back to the caller unstored and false, matching spec.md's
// push(v) -> ok | full(v) contract (the Rust original's Result<(), T>
// Err(value) arm).
func (q *SPSC[T]) Push(value T) (T, bool) {
	tail := q.tail.Load()

	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.Load()
		if tail-q.cachedHead > q.mask {
			return value, false
		}
	}

	q.buffer[tail&q.mask] = value
	q.tail.Store(tail + 1)

	var zero T
	return zero, true
}

// Pop dequeues the oldest value. Called from the single consumer goroutine
// only. Returns (zero, false) when the queue is empty.
func (q *SPSC[T]) Pop() (T, bool) {
	head := q.head.Load()

	if head >= q.cachedTail {
		q.cachedTail = q.tail.Load()
		if head >= q.cachedTail {
			var zero T
			return zero, false
		}
	}

	idx := head & q.mask
	value := q.buffer[idx]
	var zero T
	q.buffer[idx] = zero // drop any reference the element holds
	q.head.Store(head + 1)

	return value, true
}

// Len returns a snapshot of the number of queued elements. May be stale
// immediately after return under concurrent use; intended for metrics and
// tests, not for hot-path control flow.
func (q *SPSC[T]) Len() int {
	tail := q.tail.Load()
	head := q.head.Load()
	return int(tail - head)
}

// IsEmpty reports whether Len() == 0 at the moment of the call.
func (q *SPSC[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Capacity returns the fixed capacity this queue was constructed with.
func (q *SPSC[T]) Capacity() int {
	return int(q.mask + 1)
}

// Drain pops every remaining element and discards it, for use during the
// shutdown grace interval (see internal/pipeline) once both ends of a stage
// pair have stopped producing and consuming on their own.
func (q *SPSC[T]) Drain() int {
	n := 0
	for {
		if _, ok := q.Pop(); !ok {
			return n
		}
		n++
	}
}
