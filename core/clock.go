package core

import "sync/atomic"

// tickClock counts timer interrupts since boot. Only the timer interrupt
// advances it. Readers in any context get an untorn value from a single
// 64-bit atomic load, which sync/atomic guarantees on 32-bit targets too.
type tickClock struct {
	ticks atomic.Int64
}

// advance adds one tick and returns the new count. Interrupt context only.
func (c *tickClock) advance() int64 {
	return c.ticks.Add(1)
}

// now returns a snapshot of the tick count.
func (c *tickClock) now() int64 {
	return c.ticks.Load()
}
