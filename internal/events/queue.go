// Package events implements the per-context Event Queue.
//
// Events are recorded by the render goroutine and polled by the user. Every
// queued or delivered event pins its source handle, so the source cannot be
// reaped while the user may still look at it. The pin is dropped by
// Event.Release, by eviction, or when the queue is closed.
package events

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/synthplane/internal/ir"
)

// DefaultCapacity is used when a queue is created with capacity <= 0.
const DefaultCapacity = 1024

// ErrAlreadyReleased is returned by a second Release of the same event.
var ErrAlreadyReleased = errors.New("event already released")

// Pinner takes and drops internal references on handles.
type Pinner interface {
	Pin(h ir.Handle) error
	Unpin(h ir.Handle) error
}

// Event is one delivered notification.
type Event struct {
	Type    ir.EventType
	Source  ir.Handle
	Context ir.Handle
	Param   uint64 // UserAutomation only

	released atomic.Bool
	pins     Pinner
}

// Release drops the event's pin on its source. Releasing twice fails.
func (e *Event) Release() error {
	if !e.released.CompareAndSwap(false, true) {
		return fmt.Errorf("%s from %s: %w", e.Type, e.Source, ErrAlreadyReleased)
	}
	return e.pins.Unpin(e.Source)
}

// PushResult reports what happened to a pushed event.
type PushResult int

const (
	// Recorded means the event was queued.
	Recorded PushResult = iota
	// RecordedEvicting means the event was queued and the oldest unread
	// event was dropped to make room.
	RecordedEvicting
	// Ignored means recording is disabled.
	Ignored
	// Rejected means the source could not be pinned.
	Rejected
)

// Queue is a bounded FIFO of events for one context.
//
// When full, the oldest unread event is dropped. Recording starts disabled.
// Thread-safety: Queue is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	context ir.Handle
	ring    []*Event
	head    int
	size    int
	enabled bool
	closed  bool
	dropped uint64

	pins Pinner
}

// New creates a disabled queue for context.
func New(context ir.Handle, capacity int, pins Pinner) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		context: context,
		ring:    make([]*Event, capacity),
		pins:    pins,
	}
}

// Enable starts recording events.
func (q *Queue) Enable() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.enabled = true
	}
}

// Disable stops recording. Already queued events stay readable.
func (q *Queue) Disable() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = false
}

// Enabled reports whether new events are recorded.
func (q *Queue) Enabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled
}

// Push records an event from source.
func (q *Queue) Push(typ ir.EventType, source ir.Handle, param uint64) PushResult {
	q.mu.Lock()
	if !q.enabled {
		q.mu.Unlock()
		return Ignored
	}
	q.mu.Unlock()

	// Pin outside the queue lock; the registry may run hooks.
	if err := q.pins.Pin(source); err != nil {
		return Rejected
	}

	ev := &Event{Type: typ, Source: source, Context: q.context, Param: param, pins: q.pins}

	q.mu.Lock()
	if !q.enabled {
		q.mu.Unlock()
		q.pins.Unpin(source)
		return Ignored
	}
	var evicted *Event
	if q.size == len(q.ring) {
		evicted = q.ring[q.head]
		q.ring[q.head] = nil
		q.head = (q.head + 1) % len(q.ring)
		q.size--
		q.dropped++
	}
	q.ring[(q.head+q.size)%len(q.ring)] = ev
	q.size++
	q.mu.Unlock()

	if evicted != nil {
		evicted.Release()
		return RecordedEvicting
	}
	return Recorded
}

// Next removes and returns the oldest unread event.
func (q *Queue) Next() (*Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return nil, false
	}
	ev := q.ring[q.head]
	q.ring[q.head] = nil
	q.head = (q.head + 1) % len(q.ring)
	q.size--
	return ev, true
}

// Len returns the number of unread events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Dropped returns how many events were evicted unread.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close disables the queue and releases every unread event.
func (q *Queue) Close() {
	q.mu.Lock()
	q.enabled = false
	q.closed = true
	var pending []*Event
	for q.size > 0 {
		pending = append(pending, q.ring[q.head])
		q.ring[q.head] = nil
		q.head = (q.head + 1) % len(q.ring)
		q.size--
	}
	q.mu.Unlock()

	for _, ev := range pending {
		ev.Release()
	}
}
