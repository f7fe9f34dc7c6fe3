package domain

import (
	"sync/atomic"
	"time"
)

var lastTimestamp atomic.Int64

// Now returns a strictly increasing wall-clock timestamp in nanoseconds.
func Now() int64 {
	for {
		now := time.Now().UnixNano()
		last := lastTimestamp.Load()
		if now <= last {
			now = last + 1
		}
		if lastTimestamp.CompareAndSwap(last, now) {
			return now
		}
	}
}
