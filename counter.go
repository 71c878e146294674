package genref

import "sync/atomic"

// counter counts the accessors alive in a domain shared by many goroutines.
type counter struct {
	count int64
}

// Acquire registers a new accessor.
func (c *counter) Acquire() {
	atomic.AddInt64(&c.count, 1)
}

// Release unregisters an accessor and reports if it was the last one.
func (c *counter) Release() bool {
	n := atomic.AddInt64(&c.count, -1)
	if n < 0 {
		panic("genref: accessor released more often than acquired")
	}
	return n == 0
}

// Load returns the number of live accessors.
func (c *counter) Load() int {
	return int(atomic.LoadInt64(&c.count))
}
