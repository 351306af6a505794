package byteslice

import (
	"github.com/gostreamkit/streamkit/pkg/pool/internal/calibrated"
)

var defaultPool = calibrated.New(
	// newFunc: create []byte of given size
	func(size int) []byte {
		return make([]byte, size)
	},
	// sizeFunc: get capacity of slice
	func(b []byte) int {
		return cap(b)
	},
	// resetFunc: nothing to clear, contents are overwritten on reuse
	nil,
)

// Get returns a byte slice of length size, with capacity possibly larger.
func Get(size int) []byte {
	b := defaultPool.Get(size)
	return b[:size]
}

// Put returns a byte slice to the pool.
func Put(b []byte) {
	if cap(b) == 0 {
		return
	}
	defaultPool.Put(b[:cap(b)])
}

// DefaultSize returns the calibrated default slice size.
func DefaultSize() uint64 {
	return defaultPool.DefaultSize()
}

// MaxSize returns the calibrated max pooled size (95th percentile).
func MaxSize() uint64 {
	return defaultPool.MaxSize()
}
