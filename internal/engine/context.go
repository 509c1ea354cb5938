package engine

import (
	"context"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/synthplane/internal/automation"
	"github.com/roach88/synthplane/internal/events"
	"github.com/roach88/synthplane/internal/handle"
	"github.com/roach88/synthplane/internal/ir"
	"github.com/roach88/synthplane/internal/routing"
)

// Context is one independent audio graph with its own clock.
//
// Control calls stage mutations; step applies them at the next block
// boundary. Everything below renderMu is owned by the render step.
type Context struct {
	lib      *Library
	handle   ir.Handle
	headless bool
	clock    *Clock
	staged   *stagingQueue
	events   *events.Queue

	renderMu sync.Mutex
	graph    *routing.Graph
	sched    *automation.Scheduler
	members  map[ir.Handle]*object
	paused   bool

	closed atomic.Bool
	cancel context.CancelFunc
}

// CreateContext creates a context that renders in real time on its own
// goroutine. Blocks go to the OutputFunc configured with WithOutput.
func (l *Library) CreateContext() (ir.Handle, error) {
	return l.createContext(false)
}

// CreateContextHeadless creates a context that renders only when GetBlock
// is called.
func (l *Library) CreateContextHeadless() (ir.Handle, error) {
	return l.createContext(true)
}

func (l *Library) createContext(headless bool) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	h, err := l.handles.Create(ir.ObjectTypeContext, ir.NoHandle, handle.DeleteBehavior{})
	if err != nil {
		return ir.NoHandle, classify(ir.NoHandle, err)
	}
	if err := l.props.Init(h, ir.ObjectTypeContext, nil); err != nil {
		return ir.NoHandle, classify(h, err)
	}

	c := &Context{
		lib:      l,
		handle:   h,
		headless: headless,
		clock:    NewClock(l.cfg.BlockSize, l.cfg.SampleRate),
		staged:   newStagingQueue(),
		events:   events.New(h, l.cfg.EventQueueCapacity, l.handles),
		graph:    routing.New(),
		sched:    automation.NewScheduler(),
		members:  make(map[ir.Handle]*object),
	}

	l.mu.Lock()
	l.contexts[h] = c
	l.objects[h] = &object{typ: ir.ObjectTypeContext}
	l.mu.Unlock()

	if !headless {
		runCtx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		l.wg.Add(1)
		go c.run(runCtx)
	}

	l.metrics.SetLive(l.handles.Live())
	l.logger.Debug("context created", "handle", h, "headless", headless)
	return h, nil
}

// GetBlock renders one block of a headless context and returns interleaved
// stereo samples.
func (l *Library) GetBlock(h ir.Handle) ([]float32, error) {
	c, err := l.context(h, false)
	if err != nil {
		return nil, err
	}
	if !c.headless {
		return nil, newError(CodeInvalidValue, h, "context renders in real time")
	}
	return c.step(), nil
}

// run renders one block per block duration until the context shuts down.
func (c *Context) run(ctx context.Context) {
	defer c.lib.wg.Done()

	ticker := time.NewTicker(time.Duration(c.clock.BlockDuration() * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			block := c.step()
			if c.closed.Load() {
				return
			}
			if c.lib.output != nil {
				c.lib.output(c.handle, block)
			}
		}
	}
}

// stage queues m for the next block boundary.
func (c *Context) stage(m mutation) error {
	if !c.staged.Stage(m) {
		if m.discard != nil {
			m.discard()
		}
		return newError(CodeInvalidHandle, c.handle, "context is shut down")
	}
	return nil
}

// step renders one block. Block boundary order:
//  1. staged mutations apply in arrival order
//  2. doomed children whose linger window passed are reaped
//  3. automation that fell due applies, user events are recorded
//  4. the renderer computes the block from the committed state
//  5. route fades advance one block
//  6. generator signals are recorded
//  7. the clock advances
func (c *Context) step() []float32 {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	l := c.lib
	silence := func() []float32 {
		return make([]float32, l.cfg.BlockSize*OutputChannels)
	}
	if c.closed.Load() {
		return silence()
	}

	start := time.Now()
	now := c.clock.Seconds()

	for _, m := range c.staged.Swap() {
		if err := m.apply(c); err != nil {
			l.metrics.Rejected(m.kind)
			l.logger.Warn("staged mutation dropped", "context", c.handle, "kind", m.kind, "error", err)
			continue
		}
		l.metrics.Applied(m.kind)
	}

	if reaped := l.handles.Collect(c.handle, now); len(reaped) > 0 {
		l.logger.Debug("handles reaped", "context", c.handle, "count", len(reaped))
	}
	if c.closed.Load() {
		return silence()
	}

	c.applyAutomation(now)

	frame := c.frame(now)
	block, signals := l.renderer.Render(frame)
	if len(block) != l.cfg.BlockSize*OutputChannels {
		l.logger.Error("renderer returned wrong block length", "context", c.handle, "got", len(block))
		block = silence()
	}

	if removed := c.graph.Tick(); len(removed) > 0 {
		l.metrics.AddRoutes(-len(removed))
	}

	for _, s := range signals {
		if _, ok := c.members[s.Source]; !ok {
			continue
		}
		c.record(s.Type, s.Source, 0)
	}

	c.clock.Advance()
	l.metrics.ObserveBlock(time.Since(start))
	l.metrics.SetLive(l.handles.Live())
	return block
}

func (c *Context) applyAutomation(now float64) {
	l := c.lib
	updates, userEvents, err := c.sched.Advance(now)
	if err != nil {
		l.logger.Warn("automation advance failed", "context", c.handle, "error", err)
	}
	for _, u := range updates {
		if err := l.props.Apply(u.Target, u.Property, u.Value); err != nil {
			l.logger.Debug("automation target gone", "handle", u.Target, "property", u.Property, "error", err)
			continue
		}
		l.renderer.ApplyProperty(u.Target, u.Property, u.Value)
	}
	for _, ev := range userEvents {
		c.record(ir.EventTypeUserAutomation, ev.Target, ev.Param)
	}
}

func (c *Context) record(typ ir.EventType, source ir.Handle, param uint64) {
	switch c.events.Push(typ, source, param) {
	case events.Recorded:
		c.lib.metrics.Event(typ.String(), false)
	case events.RecordedEvicting:
		c.lib.metrics.Event(typ.String(), true)
	case events.Rejected:
		c.lib.logger.Debug("event source gone", "context", c.handle, "source", source, "type", typ)
	}
}

// frame snapshots the committed render state.
func (c *Context) frame(now float64) *Frame {
	handles := make([]ir.Handle, 0, len(c.members))
	for h := range c.members {
		handles = append(handles, h)
	}
	slices.Sort(handles)

	objects := make([]ObjectState, 0, len(handles))
	for _, h := range handles {
		obj := c.members[h]
		st := ObjectState{
			Handle: h,
			Type:   obj.typ,
			Paused: obj.paused,
			Spec:   obj.spec,
		}
		if len(obj.generators) > 0 {
			st.Generators = make([]ir.Handle, 0, len(obj.generators))
			for g := range obj.generators {
				st.Generators = append(st.Generators, g)
			}
			slices.Sort(st.Generators)
		}
		if len(obj.echoTaps) > 0 {
			st.EchoTaps = slices.Clone(obj.echoTaps)
		}
		if obj.typ == ir.ObjectTypeBufferGenerator {
			st.Buffer = c.lib.bufferOf(h)
		}
		objects = append(objects, st)
	}

	return &Frame{
		Context:    c.handle,
		Block:      c.clock.Blocks(),
		Time:       now,
		BlockSize:  c.lib.cfg.BlockSize,
		SampleRate: c.lib.cfg.SampleRate,
		Paused:     c.paused,
		Objects:    objects,
		Routes:     c.graph.Edges(),
	}
}

// attach makes a new child visible to rendering and pushes its initial
// property values to the renderer.
func (c *Context) attach(h ir.Handle, obj *object) mutation {
	return mutation{
		kind: "attach",
		apply: func(c *Context) error {
			if _, err := c.lib.handles.Type(h); err != nil {
				return classify(h, err)
			}
			c.members[h] = obj
			values := c.lib.props.Snapshot(h)
			keys := make([]ir.Property, 0, len(values))
			for p := range values {
				keys = append(keys, p)
			}
			slices.Sort(keys)
			for _, p := range keys {
				c.lib.renderer.ApplyProperty(h, p, values[p])
			}
			return nil
		},
	}
}

// forget removes a reaped child from the render state. It runs on the
// render step, inside Collect.
func (c *Context) forget(h ir.Handle, obj *object) {
	delete(c.members, h)
	if n := c.graph.DropHandle(h); n > 0 {
		c.lib.metrics.AddRoutes(-n)
	}
	c.sched.Drop(h)
	for g := range obj.generators {
		if err := c.lib.handles.Unpin(g); err != nil {
			c.lib.logger.Warn("unpin generator failed", "source", h, "generator", g, "error", err)
		}
	}
	obj.generators = nil
}

// shutdown stops rendering and drops staged work. It never waits for the
// render goroutine: it may run on it.
func (c *Context) shutdown() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	for _, m := range c.staged.Close() {
		if m.discard != nil {
			m.discard()
		}
	}
	c.events.Close()
	c.lib.logger.Debug("context shut down", "context", c.handle)
}

// latency returns the offset of SuggestedAutomationTime from CurrentTime.
func (c *Context) latency() float64 {
	return float64(c.lib.cfg.AutomationLatencyBlocks) * c.clock.BlockDuration()
}

// fadeBlocks converts a fade duration to whole blocks, rounding up.
func (c *Context) fadeBlocks(fade float64) (int, error) {
	if fade < 0 || math.IsNaN(fade) || math.IsInf(fade, 0) {
		return 0, newError(CodeInvalidValue, c.handle, "fade time must be finite and non-negative, got %g", fade)
	}
	return int(math.Ceil(fade/c.clock.BlockDuration() - 1e-9)), nil
}
