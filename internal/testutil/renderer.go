package testutil

import (
	"slices"
	"sync"

	"github.com/roach88/synthplane/internal/engine"
	"github.com/roach88/synthplane/internal/ir"
)

// Recorder is an engine.Renderer that renders silence and records every call.
// Signals queued with Raise are returned by the next Render.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	frames    []engine.Frame
	props     map[ir.Handle]map[ir.Property]ir.Value
	applied   int
	resets    []ir.Handle
	forgotten []ir.Handle
	pending   []engine.Signal
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{props: make(map[ir.Handle]map[ir.Property]ir.Value)}
}

// ApplyProperty records the latest value per (handle, property).
func (r *Recorder) ApplyProperty(h ir.Handle, p ir.Property, v ir.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.props[h]
	if !ok {
		m = make(map[ir.Property]ir.Value)
		r.props[h] = m
	}
	m[p] = v
	r.applied++
}

// Render records the frame and returns silence plus queued signals.
func (r *Recorder) Render(f *engine.Frame) ([]float32, []engine.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, *f)
	signals := r.pending
	r.pending = nil
	return make([]float32, f.BlockSize*engine.OutputChannels), signals
}

// ResetEffect records the reset.
func (r *Recorder) ResetEffect(h ir.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, h)
}

// Forget records the destroyed handle and drops its properties.
func (r *Recorder) Forget(h ir.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forgotten = append(r.forgotten, h)
	delete(r.props, h)
}

// Raise queues a signal for the next rendered block.
func (r *Recorder) Raise(typ ir.EventType, source ir.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, engine.Signal{Type: typ, Source: source})
}

// Property returns the last value applied for (h, p).
func (r *Recorder) Property(h ir.Handle, p ir.Property) (ir.Value, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.props[h][p]
	return v, ok
}

// Applied returns how many property values were delivered.
func (r *Recorder) Applied() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied
}

// Frames returns every recorded frame.
func (r *Recorder) Frames() []engine.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frames)
}

// LastFrame returns the most recent frame.
func (r *Recorder) LastFrame() (engine.Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return engine.Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Resets returns the effects reset so far, in order.
func (r *Recorder) Resets() []ir.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.resets)
}

// Forgotten returns the handles destroyed so far, in order.
func (r *Recorder) Forgotten() []ir.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.forgotten)
}
