package queue

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	pkgRuntime "github.com/gostreamkit/streamkit/pkg/runtime"
	"github.com/gostreamkit/streamkit/pkg/utils"
)

var _ Queue[int] = (*Blocking[int])(nil)

var (
	// ErrClosed reports a push against a closed queue. It is the normal
	// shutdown signal for producers, not a bug indicator.
	ErrClosed = errors.New("queue: closed")

	// ErrEmpty reports a Front or Back call against an empty queue.
	ErrEmpty = errors.New("queue: empty")
)

const (
	// defaultCapacity is the capacity bound used when none is given.
	defaultCapacity = 1024

	// minRingSize is the smallest ring storage allocation.
	minRingSize = 8
)

// Blocking is a bounded multiple-producer multiple-consumer FIFO queue.
//
// Producers are stalled (backpressure) while the queue is at capacity;
// consumers are stalled while it is empty. Close wakes every waiter: after
// it, pushes always fail with ErrClosed while pops keep succeeding until
// the remaining elements are drained.
//
// A single mutex guards the storage, capacity bound and closed flag; two
// condition variables gate the producer and consumer directions. Every
// wait re-checks its predicate in a loop, so spurious wakeups and
// competing waiters are tolerated.
type Blocking[T any] struct {
	mu       sync.Mutex
	notFull  sync.Cond // producers wait here
	notEmpty sync.Cond // consumers wait here

	items    []T // ring storage, length is a power of two
	head     int // index of the front element
	count    int
	capacity int
	closed   bool
}

// NewBlocking creates a queue bounded to the given capacity.
// Non-positive capacity uses the default of 1024.
func NewBlocking[T any](capacity int) *Blocking[T] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	q := &Blocking[T]{capacity: capacity}
	q.notFull.L = &q.mu
	q.notEmpty.L = &q.mu
	return q
}

// TryPush adds an item without blocking.
// Returns false if the queue is closed or at capacity.
func (q *Blocking[T]) TryPush(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.count >= q.capacity {
		return false
	}
	q.pushLocked(item)
	q.notEmpty.Signal()
	return true
}

// Push blocks until space is available, then adds the item.
// It fails with ErrClosed if the queue is closed before space frees up,
// including while waiting.
func (q *Blocking[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.count >= q.capacity {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrClosed
	}
	q.pushLocked(item)
	q.notEmpty.Signal()
	return nil
}

// PushTimeout is Push with a bounded wait. It returns false when the
// timeout elapses before space frees up, or when the queue is closed.
func (q *Blocking[T]) PushTimeout(item T, timeout time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	ok := q.waitDeadline(&q.notFull, deadline(timeout), func() bool {
		return q.closed || q.count < q.capacity
	})
	if !ok || q.closed {
		return false
	}
	q.pushLocked(item)
	q.notEmpty.Signal()
	return true
}

// TryPop removes and returns the front element without blocking.
// Returns false if the queue holds no elements, closed or not.
func (q *Blocking[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		var zero T
		return zero, false
	}
	item := q.popLocked()
	q.notFull.Signal()
	return item, true
}

// Pop blocks until an element is available and returns it. It returns
// false only when the queue is closed AND empty: remaining elements stay
// poppable after Close.
func (q *Blocking[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.count == 0 {
		q.notEmpty.Wait()
	}
	if q.count == 0 {
		var zero T
		return zero, false
	}
	item := q.popLocked()
	q.notFull.Signal()
	return item, true
}

// PopTimeout is Pop with a bounded wait. It returns false on timeout or
// when the queue is closed and empty.
func (q *Blocking[T]) PopTimeout(timeout time.Duration) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ok := q.waitDeadline(&q.notEmpty, deadline(timeout), func() bool {
		return q.closed || q.count > 0
	})
	if !ok || q.count == 0 {
		var zero T
		return zero, false
	}
	item := q.popLocked()
	q.notFull.Signal()
	return item, true
}

// Peek returns the front element without removing it, waiting up to
// timeout for one to arrive. It returns false on timeout or when the
// queue is closed and empty.
func (q *Blocking[T]) Peek(timeout time.Duration) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ok := q.waitDeadline(&q.notEmpty, deadline(timeout), func() bool {
		return q.closed || q.count > 0
	})
	if !ok || q.count == 0 {
		var zero T
		return zero, false
	}
	return q.items[q.head], true
}

// PushBatch enqueues items, returning the count actually enqueued.
//
// When the whole batch fits under the capacity bound it is enqueued
// atomically, with no interleaving from other producers. Otherwise it
// degrades to element-wise blocking pushes, which other producers may
// interleave with; ErrClosed is returned if the queue closes mid-way,
// together with the count that made it in.
func (q *Blocking[T]) PushBatch(items []T) (int, error) {
	q.mu.Lock()
	if !q.closed && q.count+len(items) <= q.capacity {
		for _, item := range items {
			q.pushLocked(item)
		}
		q.notEmpty.Broadcast()
		q.mu.Unlock()
		return len(items), nil
	}
	if q.closed {
		q.mu.Unlock()
		return 0, ErrClosed
	}
	q.mu.Unlock()

	for i, item := range items {
		if err := q.Push(item); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

// PopBatch blocks until at least one element is available, then drains up
// to len(dest) elements without blocking further. It returns the count
// removed, which is 0 only when the queue is closed and empty.
func (q *Blocking[T]) PopBatch(dest []T) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.count == 0 {
		q.notEmpty.Wait()
	}

	n := 0
	for q.count > 0 && n < len(dest) {
		dest[n] = q.popLocked()
		n++
	}
	if n > 0 {
		q.notFull.Broadcast()
	}
	return n
}

// Front returns a snapshot of the first element.
// It fails with ErrEmpty when the queue holds no elements.
func (q *Blocking[T]) Front() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return q.items[q.head], nil
}

// Back returns a snapshot of the last element.
// It fails with ErrEmpty when the queue holds no elements.
func (q *Blocking[T]) Back() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return q.items[(q.head+q.count-1)&(len(q.items)-1)], nil
}

// Clear atomically empties the queue and wakes blocked producers.
// The closed flag is unaffected.
func (q *Blocking[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.items)
	q.head = 0
	q.count = 0
	q.notFull.Broadcast()
}

// SetCapacity changes the capacity bound at runtime. Raising it wakes
// blocked producers. Shrinking below the current size never evicts
// elements: pushes simply keep failing until the excess drains.
func (q *Blocking[T]) SetCapacity(capacity int) {
	if capacity < 0 {
		capacity = 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.capacity = capacity
	if q.count < q.capacity {
		q.notFull.Broadcast()
	}
}

// Close marks the queue closed and wakes every blocked producer and
// consumer. It is idempotent. After Close, pushes always fail while pops
// keep succeeding until the queue is drained.
func (q *Blocking[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// IsClosed reports whether Close has been called.
func (q *Blocking[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Size returns the number of stored elements.
func (q *Blocking[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Capacity returns the current capacity bound.
func (q *Blocking[T]) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity
}

// IsEmpty reports whether the queue holds no elements.
func (q *Blocking[T]) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count == 0
}

// IsFull reports whether the queue is at or over its capacity bound.
func (q *Blocking[T]) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count >= q.capacity
}

// Flush wakes one waiting consumer without a state change, for callers
// that mutate external conditions a wait predicate depends on.
func (q *Blocking[T]) Flush() {
	q.notEmpty.Signal()
}

// NotifyAll wakes every waiting producer and consumer without a state
// change.
func (q *Blocking[T]) NotifyAll() {
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// pushLocked appends item to the ring. Caller holds q.mu.
func (q *Blocking[T]) pushLocked(item T) {
	if q.count == len(q.items) {
		q.growLocked()
	}
	q.items[(q.head+q.count)&(len(q.items)-1)] = item
	q.count++
}

// popLocked removes and returns the front element. Caller holds q.mu and
// guarantees q.count > 0.
func (q *Blocking[T]) popLocked() T {
	var zero T
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) & (len(q.items) - 1)
	q.count--
	return item
}

// growLocked doubles the ring storage, unwrapping the elements so the
// front lands at index 0. Storage grows lazily toward the capacity bound
// instead of being allocated up front.
func (q *Blocking[T]) growLocked() {
	size := minRingSize
	if q.count > 0 {
		size = utils.CeilToPowerOfTwo(q.count * 2)
	}
	items := make([]T, size)
	if q.count > 0 {
		n := copy(items, q.items[q.head:])
		copy(items[n:], q.items[:q.count-n])
	}
	q.items = items
	q.head = 0
}

// waitDeadline blocks on c until pred holds or the monotonic deadline
// passes, re-checking pred after every wakeup. Caller holds q.mu.
func (q *Blocking[T]) waitDeadline(c *sync.Cond, deadlineNs int64, pred func() bool) bool {
	for !pred() {
		remaining := deadlineNs - pkgRuntime.NanoTime()
		if remaining <= 0 {
			return false
		}
		// Bound the wait: the timer broadcast is a spurious wakeup for
		// every other waiter on c, which the predicate loops absorb.
		// The callback takes q.mu first so the broadcast cannot land in
		// the window between arming the timer and Wait parking the
		// caller; without it a timer firing in that gap wakes nobody and
		// the wait never ends.
		t := time.AfterFunc(time.Duration(remaining), func() {
			q.mu.Lock()
			c.Broadcast()
			q.mu.Unlock()
		})
		c.Wait()
		t.Stop()
	}
	return true
}

func deadline(timeout time.Duration) int64 {
	return pkgRuntime.NanoTime() + timeout.Nanoseconds()
}
