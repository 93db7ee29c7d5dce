// Package queue provides a fixed-capacity SPSC queue: blocking
// read_fully/write_fully, non-blocking try variants, and an abortable
// shutdown.
//
// The lock-free ring buffer itself is lfq.SPSC[T]
// (code.hybscloud.com/lfq); lfq only exposes non-blocking
// Enqueue/Dequeue (they return ErrWouldBlock rather than park a
// goroutine). BoundedQueue adds the blocking wait, shutdown and clear
// semantics the port/command layers need on top of it, the same way a
// completion-queue runner turns non-blocking polling into a blocking
// per-tag state machine.
package queue

import (
	"sync"

	"code.hybscloud.com/lfq"
)

// ErrInterrupted is returned by a blocked (or about-to-block) call when
// the queue has been shut down on that side.
var ErrInterrupted = errInterrupted{}

type errInterrupted struct{}

func (errInterrupted) Error() string { return "queue: interrupted (shutdown)" }

// BoundedQueue is a fixed-capacity single-producer/single-consumer
// queue with blocking and non-blocking operations and a cooperative
// shutdown switch.
type BoundedQueue[T any] struct {
	ring *lfq.SPSC[T]

	mu            sync.Mutex
	cond          *sync.Cond
	count         int // approximate occupancy, guarded by mu, used only for waking
	readShutdown  bool
	writeShutdown bool
	generation    uint64 // bumped on Clear/shutdown toggles so waiters re-check
}

// New creates a bounded queue. Capacity rounds up to the next power of
// two, with a minimum of 2 (lfq.NewSPSC's own floor) — a component's
// nominal depth-1 command mailbox is therefore served by a
// capacity-2 queue; nothing in the core relies on a true depth of 1,
// only on "at most one command is ever mid-flight," which the
// dispatcher enforces independently of queue capacity.
func New[T any](capacity int) *BoundedQueue[T] {
	if capacity < 2 {
		capacity = 2
	}
	q := &BoundedQueue[T]{ring: lfq.NewSPSC[T](capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Cap returns the queue's rounded-up capacity.
func (q *BoundedQueue[T]) Cap() int {
	return q.ring.Cap()
}

// Len returns the queue's approximate current occupancy — the same
// best-effort counter used to decide when to wake a blocked waiter,
// exposed for depth sampling rather than waking.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// TryPush attempts a non-blocking enqueue. It reports whether the
// element was transferred.
func (q *BoundedQueue[T]) TryPush(elem T) (bool, error) {
	q.mu.Lock()
	if q.writeShutdown {
		q.mu.Unlock()
		return false, ErrInterrupted
	}
	q.mu.Unlock()

	if err := q.ring.Enqueue(&elem); err != nil {
		return false, nil // would-block: zero transferred, not an error
	}
	q.mu.Lock()
	q.count++
	q.cond.Broadcast()
	q.mu.Unlock()
	return true, nil
}

// TryPop attempts a non-blocking dequeue.
func (q *BoundedQueue[T]) TryPop() (T, bool, error) {
	var zero T
	q.mu.Lock()
	if q.readShutdown {
		q.mu.Unlock()
		return zero, false, ErrInterrupted
	}
	q.mu.Unlock()

	elem, err := q.ring.Dequeue()
	if err != nil {
		return zero, false, nil
	}
	q.mu.Lock()
	if q.count > 0 {
		q.count--
	}
	q.cond.Broadcast()
	q.mu.Unlock()
	return elem, true, nil
}

// Push blocks until elem is written or the write side is shut down.
func (q *BoundedQueue[T]) Push(elem T) error {
	for {
		ok, err := q.TryPush(elem)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		q.waitForSpaceOrShutdown()
		q.mu.Lock()
		shutdown := q.writeShutdown
		q.mu.Unlock()
		if shutdown {
			return ErrInterrupted
		}
	}
}

// Pop blocks until an element is available or the read side is shut
// down.
func (q *BoundedQueue[T]) Pop() (T, error) {
	for {
		elem, ok, err := q.TryPop()
		if err != nil {
			return elem, err
		}
		if ok {
			return elem, nil
		}
		q.waitForDataOrShutdown()
		q.mu.Lock()
		shutdown := q.readShutdown
		q.mu.Unlock()
		if shutdown {
			var zero T
			return zero, ErrInterrupted
		}
	}
}

// PushN blocks until all of buf has been written, or the write side
// shuts down mid-way (in which case it returns the count actually
// written along with ErrInterrupted).
func (q *BoundedQueue[T]) PushN(buf []T) (int, error) {
	for i, elem := range buf {
		if err := q.Push(elem); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// PopN blocks until all of buf has been filled, or the read side
// shuts down mid-way.
func (q *BoundedQueue[T]) PopN(buf []T) (int, error) {
	for i := range buf {
		elem, err := q.Pop()
		if err != nil {
			return i, err
		}
		buf[i] = elem
	}
	return len(buf), nil
}

// waitForSpaceOrShutdown parks until a consumer has made progress, a
// shutdown toggles, or Clear runs — all of which bump generation.
func (q *BoundedQueue[T]) waitForSpaceOrShutdown() {
	q.mu.Lock()
	gen := q.generation
	for q.generation == gen && !q.writeShutdown {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

func (q *BoundedQueue[T]) waitForDataOrShutdown() {
	q.mu.Lock()
	gen := q.generation
	for q.generation == gen && !q.readShutdown {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

// Shutdown marks the requested side(s) as interrupted. Already-blocked
// callers wake immediately and fail; subsequent calls on a shut-down
// side fail without blocking.
func (q *BoundedQueue[T]) Shutdown(read, write bool) {
	q.mu.Lock()
	if read {
		q.readShutdown = true
	}
	if write {
		q.writeShutdown = true
	}
	q.generation++
	q.cond.Broadcast()
	q.mu.Unlock()
}

// AbortShutdown re-enables blocking operation on both sides.
func (q *BoundedQueue[T]) AbortShutdown() {
	q.mu.Lock()
	q.readShutdown = false
	q.writeShutdown = false
	q.generation++
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Clear drops all pending elements and wakes any waiters. It does not
// change shutdown state.
func (q *BoundedQueue[T]) Clear() {
	for {
		if _, err := q.ring.Dequeue(); err != nil {
			break
		}
	}
	q.mu.Lock()
	q.count = 0
	q.generation++
	q.cond.Broadcast()
	q.mu.Unlock()
}
