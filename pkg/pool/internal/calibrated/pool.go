package calibrated

import (
	"math/bits"
	"sort"
	"sync"
	"sync/atomic"
)

const (
	// MinBitSize is the log2 of the smallest bucket (64 bytes, one cache line).
	MinBitSize = 6

	// Steps is the number of size buckets, covering 64B up to 32MB.
	Steps = 20

	MinSize = 1 << MinBitSize
	MaxSize = 1 << (MinBitSize + Steps - 1)

	calibrateThreshold = 42000
	percentile95       = 0.95
)

// Pool is a generic pool with power-of-two size buckets that periodically
// calibrates itself against the observed size distribution: items larger
// than the 95th percentile of recent Puts are dropped instead of pooled.
type Pool[T any] struct {
	calls       [Steps]uint64
	calibrating uint64
	defaultSize uint64
	maxSize     uint64
	buckets     [Steps]sync.Pool
	newFunc     func(size int) T
	sizeFunc    func(T) int
	resetFunc   func(T)
}

// New creates a calibrated pool. newFunc allocates an item of the given
// size, sizeFunc reports an item's size, resetFunc prepares an item for
// reuse (may be nil).
func New[T any](newFunc func(size int) T, sizeFunc func(T) int, resetFunc func(T)) *Pool[T] {
	p := &Pool[T]{
		newFunc:   newFunc,
		sizeFunc:  sizeFunc,
		resetFunc: resetFunc,
	}
	for i := range p.buckets {
		size := MinSize << i
		p.buckets[i].New = func() any {
			return newFunc(size)
		}
	}
	return p
}

// Get returns an item of at least the given size.
func (p *Pool[T]) Get(size int) T {
	if size <= 0 {
		size = MinSize
	}

	idx := SizeToIndex(size)
	if idx >= Steps {
		return p.newFunc(size)
	}

	return p.buckets[idx].Get().(T)
}

// Put returns an item to its size bucket. Oversized or zero-sized items
// are dropped.
func (p *Pool[T]) Put(item T) {
	size := p.sizeFunc(item)
	if size == 0 {
		return
	}

	idx := SizeToIndex(size)
	if idx >= Steps {
		return
	}

	if atomic.AddUint64(&p.calls[idx], 1) > calibrateThreshold {
		p.calibrate()
	}

	if max := int(atomic.LoadUint64(&p.maxSize)); max > 0 && size > max {
		return
	}

	if p.resetFunc != nil {
		p.resetFunc(item)
	}
	p.buckets[idx].Put(item)
}

// DefaultSize returns the calibrated default item size.
func (p *Pool[T]) DefaultSize() uint64 {
	return atomic.LoadUint64(&p.defaultSize)
}

// MaxSize returns the calibrated max pooled size (95th percentile).
func (p *Pool[T]) MaxSize() uint64 {
	return atomic.LoadUint64(&p.maxSize)
}

type bucketCalls struct {
	calls uint64
	size  uint64
}

// calibrate recomputes defaultSize and maxSize from the call counters
// gathered since the previous calibration.
func (p *Pool[T]) calibrate() {
	if !atomic.CompareAndSwapUint64(&p.calibrating, 0, 1) {
		return
	}
	defer atomic.StoreUint64(&p.calibrating, 0)

	stats := make([]bucketCalls, 0, Steps)
	var total uint64
	for i := 0; i < Steps; i++ {
		calls := atomic.SwapUint64(&p.calls[i], 0)
		total += calls
		stats = append(stats, bucketCalls{calls: calls, size: MinSize << i})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].calls > stats[j].calls })

	defaultSize := stats[0].size
	maxSize := defaultSize
	threshold := uint64(float64(total) * percentile95)

	var sum uint64
	for _, s := range stats {
		if sum > threshold {
			break
		}
		sum += s.calls
		if s.size > maxSize {
			maxSize = s.size
		}
	}

	atomic.StoreUint64(&p.defaultSize, defaultSize)
	atomic.StoreUint64(&p.maxSize, maxSize)
}

// SizeToIndex returns the bucket index holding items of at least n bytes.
func SizeToIndex(n int) int {
	if n <= MinSize {
		return 0
	}
	return bits.Len(uint(n-1)) - MinBitSize
}

// BucketSize returns the item size of bucket i.
func BucketSize(i int) int {
	if i < 0 || i >= Steps {
		return 0
	}
	return MinSize << i
}
