package engine

import "sync"

// mutation is one control-side change waiting for a block boundary.
//
// apply runs on the context's render step. discard runs instead when the
// mutation is dropped unapplied (context shutdown) and releases whatever the
// staging call acquired.
type mutation struct {
	kind    string
	apply   func(c *Context) error
	discard func()
}

// stagingQueue collects mutations from control goroutines.
//
// The lock is held only to append or to swap the pending slice out, so the
// render step never waits on control work and control callers never wait on
// rendering.
type stagingQueue struct {
	mu      sync.Mutex
	pending []mutation
	spare   []mutation
	closed  bool
}

func newStagingQueue() *stagingQueue {
	return &stagingQueue{
		pending: make([]mutation, 0, 64),
		spare:   make([]mutation, 0, 64),
	}
}

// Stage appends m. Returns false if the queue is closed.
// Thread-safe: may be called from any goroutine.
func (q *stagingQueue) Stage(m mutation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.pending = append(q.pending, m)
	return true
}

// Swap takes every pending mutation in arrival order. The returned slice is
// valid until the next Swap.
func (q *stagingQueue) Swap() []mutation {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.pending
	clear(q.spare)
	q.pending = q.spare[:0]
	q.spare = out
	return out
}

// Len returns the number of pending mutations.
func (q *stagingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close rejects further staging and returns what was still pending.
func (q *stagingQueue) Close() []mutation {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	out := q.pending
	q.pending = nil
	return out
}
