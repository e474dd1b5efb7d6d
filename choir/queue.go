package choir

import "sync/atomic"

// Queue is a bounded single-producer single-consumer ring. One goroutine may
// Push while another Pops; neither call blocks or allocates.
type Queue[T any] struct {
	buf  []T
	mask uint64
	// head is advanced by the consumer, tail by the producer.
	head atomic.Uint64
	tail atomic.Uint64
}

// NewQueue creates a queue holding at least capacity items. The capacity is
// rounded up to a power of two.
func NewQueue[T any](capacity int) *Queue[T] {
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &Queue[T]{buf: make([]T, n), mask: uint64(n - 1)}
}

// Push appends v. It reports false when the queue is full.
func (q *Queue[T]) Push(v T) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() >= uint64(len(q.buf)) {
		return false
	}
	q.buf[tail&q.mask] = v
	q.tail.Store(tail + 1)
	return true
}

// Pop removes the oldest item.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	head := q.head.Load()
	if head == q.tail.Load() {
		return zero, false
	}
	i := head & q.mask
	v := q.buf[i]
	q.buf[i] = zero
	q.head.Store(head + 1)
	return v, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the ring size.
func (q *Queue[T]) Cap() int { return len(q.buf) }
