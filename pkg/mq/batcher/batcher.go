package batcher

import (
	"sync"
	"sync/atomic"
)

const defaultStripeSize = 512

// Consumer receives flushed batches. The batch slice is owned by the
// consumer once Consume returns; implementations called from concurrent
// pushers must be safe for concurrent use.
type Consumer[T any] interface {
	Consume(batch []T) error
}

// Config holds tuning knobs for a Batcher.
type Config struct {
	// StripeSize is the number of items a stripe holds before its batch
	// is handed to the consumer. Defaults to 512.
	StripeSize int
}

// Batcher coalesces items pushed from many goroutines into batches.
// Pushers check stripes in and out of a sync.Pool, so under steady load
// each runs against a buffer it exclusively owns and full stripes flush
// without any shared lock.
//
// Every stripe the pool ever creates is also recorded in a registry, so
// partially filled stripes are never stranded: Flush and Close walk the
// registry and hand the resident tails to the consumer, including
// stripes the pool has since evicted.
type Batcher[T any] struct {
	pool   sync.Pool
	closed atomic.Bool

	mu      sync.Mutex
	stripes []*stripe[T]

	cons Consumer[T]
	size int
}

// New creates a Batcher flushing into cons.
func New[T any](cons Consumer[T], cfg Config) *Batcher[T] {
	size := cfg.StripeSize
	if size <= 0 {
		size = defaultStripeSize
	}

	b := &Batcher[T]{cons: cons, size: size}
	b.pool.New = func() any {
		s := newStripe[T](cons, size)
		b.mu.Lock()
		b.stripes = append(b.stripes, s)
		b.mu.Unlock()
		return s
	}
	return b
}

// Push adds an item, flushing the checked-out stripe to the consumer
// when it fills. On a closed batcher the item bypasses the stripes and
// goes to the consumer as a batch of one, so late pushers cannot park
// items in a buffer that will never drain again.
func (b *Batcher[T]) Push(item T) {
	if b.closed.Load() {
		_ = b.cons.Consume([]T{item})
		return
	}

	s := b.pool.Get().(*stripe[T])
	s.push(item)
	b.pool.Put(s)
}

// Flush hands every resident stripe tail to the consumer without
// closing the batcher. It must not run concurrently with Push: stop or
// quiesce the pushers first. The first consumer error is returned.
func (b *Batcher[T]) Flush() error {
	return b.drain()
}

// Close flushes every resident stripe tail and marks the batcher
// closed. Like Flush it must not race Push. Close is idempotent;
// repeated calls return nil without touching the consumer.
func (b *Batcher[T]) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.drain()
}

func (b *Batcher[T]) drain() error {
	// Stripes are only ever appended, so a snapshot is safe to walk
	// outside the lock.
	b.mu.Lock()
	stripes := b.stripes
	b.mu.Unlock()

	var first error
	for _, s := range stripes {
		if err := s.flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
