package runtime

import (
	_ "unsafe" // for go:linkname
)

// NanoTime returns the current time in nanoseconds from a monotonic clock.
// It is the clock used for wait deadlines, immune to wall-clock jumps.
//
//go:linkname NanoTime runtime.nanotime
func NanoTime() int64
