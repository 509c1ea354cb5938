package engine

import "sync/atomic"

// Clock counts rendered blocks of one context. Context time is derived from
// the block count, never from the wall clock, so headless runs replay
// identically.
//
// Thread-safety: Clock is safe for concurrent use. Only the context's render
// step calls Advance.
type Clock struct {
	blocks   atomic.Uint64
	blockDur float64
}

// NewClock creates a clock for blocks of blockSize frames at sampleRate.
func NewClock(blockSize, sampleRate int) *Clock {
	return &Clock{blockDur: float64(blockSize) / float64(sampleRate)}
}

// Advance counts one rendered block and returns the new count.
func (c *Clock) Advance() uint64 {
	return c.blocks.Add(1)
}

// Blocks returns the number of rendered blocks.
func (c *Clock) Blocks() uint64 {
	return c.blocks.Load()
}

// Seconds returns the context time: the start of the next block to render.
func (c *Clock) Seconds() float64 {
	return float64(c.blocks.Load()) * c.blockDur
}

// BlockDuration returns the length of one block in seconds.
func (c *Clock) BlockDuration() float64 {
	return c.blockDur
}
