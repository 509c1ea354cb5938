package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/synthplane/internal/automation"
	"github.com/roach88/synthplane/internal/buffer"
	"github.com/roach88/synthplane/internal/config"
	"github.com/roach88/synthplane/internal/handle"
	"github.com/roach88/synthplane/internal/ir"
	"github.com/roach88/synthplane/internal/metrics"
	"github.com/roach88/synthplane/internal/props"
	"github.com/roach88/synthplane/internal/stream"
)

// OutputFunc receives every block rendered by a real-time context.
// It runs on the context's render goroutine and must not block.
type OutputFunc func(context ir.Handle, block []float32)

// Library is one engine instance: the handle registry, the property table
// and every context.
//
// Thread-safety model:
//   - every exported method is safe from any goroutine
//   - control calls validate synchronously and stage their effect on the
//     owning context; it becomes visible at the next block boundary
//   - each context renders on exactly one goroutine at a time
//
// Lock order: l.mu is never held while calling into the handle registry,
// because the registry calls back into the library for context clocks and
// destroy hooks.
type Library struct {
	id       string
	cfg      config.Library
	logger   *slog.Logger
	metrics  *metrics.Engine
	renderer Renderer
	output   OutputFunc

	protocols *stream.Protocols
	files     *buffer.FileCache

	handles *handle.Registry
	props   *props.Table

	mu       sync.RWMutex
	contexts map[ir.Handle]*Context
	objects  map[ir.Handle]*object

	closed atomic.Bool
	wg     sync.WaitGroup
}

// object is the engine-side payload of a handle. Fields above the marker are
// fixed at creation; fields below it belong to the owning context's render
// step.
type object struct {
	typ     ir.ObjectType
	context ir.Handle
	spec    *ObjectSpec
	batch   *automation.Batch

	streamMu sync.Mutex
	stream   stream.Stream // stream handles only
	consumed bool

	// render-side
	paused     bool
	generators map[ir.Handle]struct{}
	echoTaps   []EchoTap
}

// Option configures a Library.
type Option func(*Library)

// WithLogger overrides the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// WithMetrics records render and commit metrics.
func WithMetrics(m *metrics.Engine) Option {
	return func(l *Library) {
		l.metrics = m
	}
}

// WithRenderer sets the DSP collaborator. Default: NullRenderer.
// A renderer shared by several real-time contexts must be safe for
// concurrent use.
func WithRenderer(r Renderer) Option {
	return func(l *Library) {
		l.renderer = r
	}
}

// WithOutput receives the blocks of real-time contexts.
func WithOutput(fn OutputFunc) Option {
	return func(l *Library) {
		l.output = fn
	}
}

// WithIDGenerator sets the generator of the instance id.
func WithIDGenerator(gen IDGenerator) Option {
	return func(l *Library) {
		l.id = gen.Generate()
	}
}

// New creates a library instance from validated settings.
func New(cfg config.Library, opts ...Option) (*Library, error) {
	if err := cfg.Validate(); err != nil {
		return nil, classify(ir.NoHandle, err)
	}

	l := &Library{
		cfg:       cfg,
		renderer:  NullRenderer{},
		protocols: stream.NewProtocols(),
		contexts:  make(map[ir.Handle]*Context),
		objects:   make(map[ir.Handle]*object),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = cfg.NewLogger(nil)
	}
	if l.id == "" {
		l.id = UUIDv7Generator{}.Generate()
	}
	l.logger = l.logger.With("library", l.id)
	if cfg.BufferCacheSeconds > 0 {
		l.files = buffer.NewFileCache(time.Duration(cfg.BufferCacheSeconds * float64(time.Second)))
	}

	l.handles = handle.New(handle.WithClock(l.contextTime), handle.WithLogger(l.logger))
	l.handles.OnDestroy(l.onDestroy)
	l.props = props.New(l.handles)

	l.logger.Info("library initialized",
		"sample_rate", cfg.SampleRate,
		"block_size", cfg.BlockSize,
		"event_queue_capacity", cfg.EventQueueCapacity,
	)
	return l, nil
}

// ID returns the instance id.
func (l *Library) ID() string {
	return l.id
}

// Config returns the settings the library was built with.
func (l *Library) Config() config.Library {
	return l.cfg
}

// Logger returns the library logger.
func (l *Library) Logger() *slog.Logger {
	return l.logger
}

// Close stops every context and invalidates every handle. User-data free
// callbacks run exactly once. Later calls fail with CodeNotInitialized.
func (l *Library) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return newError(CodeNotInitialized, ir.NoHandle, "library is closed")
	}

	l.mu.Lock()
	contexts := make([]*Context, 0, len(l.contexts))
	for _, c := range l.contexts {
		contexts = append(contexts, c)
	}
	objects := make([]*object, 0, len(l.objects))
	for _, obj := range l.objects {
		objects = append(objects, obj)
	}
	l.contexts = make(map[ir.Handle]*Context)
	l.objects = make(map[ir.Handle]*object)
	l.mu.Unlock()

	for _, c := range contexts {
		c.shutdown()
	}
	l.wg.Wait()

	for _, obj := range objects {
		obj.closeStreams(l.logger)
	}
	l.handles.Reset()
	if l.files != nil {
		l.files.Flush()
	}

	l.logger.Info("library closed", "contexts", len(contexts), "objects", len(objects))
	return nil
}

func (l *Library) enter() error {
	if l.closed.Load() {
		return newError(CodeNotInitialized, ir.NoHandle, "library is closed")
	}
	return nil
}

// contextTime is the registry clock: the context time of owner.
func (l *Library) contextTime(owner ir.Handle) float64 {
	l.mu.RLock()
	c := l.contexts[owner]
	l.mu.RUnlock()
	if c == nil {
		return 0
	}
	return c.clock.Seconds()
}

func (l *Library) lookupObject(h ir.Handle) (*object, error) {
	l.mu.RLock()
	obj := l.objects[h]
	l.mu.RUnlock()
	if obj == nil {
		return nil, newError(CodeInvalidHandle, h, "unknown handle")
	}
	return obj, nil
}

// resolve returns the payload of h if h still resolves (alive or doomed).
func (l *Library) resolve(h ir.Handle) (*object, error) {
	if err := l.enter(); err != nil {
		return nil, err
	}
	if _, err := l.handles.Type(h); err != nil {
		return nil, classify(h, err)
	}
	return l.lookupObject(h)
}

// resolveAlive is resolve restricted to handles not scheduled for deletion.
func (l *Library) resolveAlive(h ir.Handle) (*object, error) {
	if err := l.enter(); err != nil {
		return nil, err
	}
	if !l.handles.Alive(h) {
		return nil, newError(CodeInvalidHandle, h, "handle is not alive")
	}
	return l.lookupObject(h)
}

// resolveType is resolve plus an object type check.
func (l *Library) resolveType(h ir.Handle, alive bool, ok func(ir.ObjectType) bool, want string) (*object, error) {
	var obj *object
	var err error
	if alive {
		obj, err = l.resolveAlive(h)
	} else {
		obj, err = l.resolve(h)
	}
	if err != nil {
		return nil, err
	}
	if !ok(obj.typ) {
		return nil, newError(CodeWrongObjectType, h, "%s is not %s", obj.typ, want)
	}
	return obj, nil
}

func (l *Library) context(h ir.Handle, alive bool) (*Context, error) {
	if _, err := l.resolveType(h, alive, isType(ir.ObjectTypeContext), "a context"); err != nil {
		return nil, err
	}
	l.mu.RLock()
	c := l.contexts[h]
	l.mu.RUnlock()
	if c == nil {
		return nil, newError(CodeInvalidHandle, h, "context is shut down")
	}
	return c, nil
}

// owningContext returns the context that renders h: h itself for contexts.
func (l *Library) owningContext(h ir.Handle, obj *object) (*Context, error) {
	owner := obj.context
	if obj.typ == ir.ObjectTypeContext {
		owner = h
	}
	l.mu.RLock()
	c := l.contexts[owner]
	l.mu.RUnlock()
	if c == nil {
		return nil, newError(CodeInvalidHandle, h, "object has no live context")
	}
	return c, nil
}

func isType(t ir.ObjectType) func(ir.ObjectType) bool {
	return func(got ir.ObjectType) bool { return got == t }
}

func (l *Library) defaultBehavior() handle.DeleteBehavior {
	return handle.DeleteBehavior{
		Linger:        l.cfg.DefaultLingerTimeout > 0,
		LingerTimeout: l.cfg.DefaultLingerTimeout,
	}
}

// onDestroy releases everything the engine holds for a reaped handle. It runs
// outside the registry lock: on the owning context's render step for context
// children, on the releasing goroutine for everything else.
func (l *Library) onDestroy(h ir.Handle, typ ir.ObjectType) {
	l.mu.Lock()
	obj := l.objects[h]
	delete(l.objects, h)
	var c *Context
	if typ == ir.ObjectTypeContext {
		c = l.contexts[h]
		delete(l.contexts, h)
	} else if obj != nil && obj.context != ir.NoHandle {
		c = l.contexts[obj.context]
	}
	l.mu.Unlock()

	l.props.Drop(h)
	if obj == nil {
		return
	}

	if typ == ir.ObjectTypeContext {
		if c != nil {
			c.shutdown()
		}
	} else if c != nil {
		c.forget(h, obj)
	}
	obj.closeStreams(l.logger)
	l.renderer.Forget(h)

	if obj.context != ir.NoHandle {
		if err := l.handles.Unpin(obj.context); err != nil {
			l.logger.Warn("unpin context failed", "handle", h, "context", obj.context, "error", err)
		}
	}
	l.metrics.Reaped(1)
	l.logger.Debug("object destroyed", "handle", h, "type", typ)
}

// closeStreams closes the streams an object still owns.
func (obj *object) closeStreams(logger *slog.Logger) {
	var s stream.Stream
	switch obj.typ {
	case ir.ObjectTypeStreamHandle:
		obj.streamMu.Lock()
		if !obj.consumed {
			s = obj.stream
			obj.consumed = true
		}
		obj.streamMu.Unlock()
	case ir.ObjectTypeStreamingGenerator:
		if obj.spec != nil {
			s = obj.spec.Stream
		}
	}
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		logger.Debug("stream close failed", "error", err)
	}
	s.Destroy()
}

// Live returns the number of allocated handles, including doomed ones.
func (l *Library) Live() int {
	return l.handles.Live()
}
