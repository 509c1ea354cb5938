package engine

import (
	"math"

	"github.com/roach88/synthplane/internal/automation"
	"github.com/roach88/synthplane/internal/buffer"
	"github.com/roach88/synthplane/internal/handle"
	"github.com/roach88/synthplane/internal/ir"
	"github.com/roach88/synthplane/internal/stream"
)

// MaxEchoDelay bounds the delay of one echo tap, in seconds.
const MaxEchoDelay = 5.0

// EchoTap is one tap of a global echo.
type EchoTap struct {
	Delay float64
	GainL float64
	GainR float64
}

// SineWave is one partial of a fast sine bank. FrequencyMul scales the
// bank's Frequency property.
type SineWave struct {
	FrequencyMul float64
	Phase        float64
	Gain         float64
}

// SineBankConfig describes a fast sine bank generator.
type SineBankConfig struct {
	Waves            []SineWave
	InitialFrequency float64
}

// ObjectSpec carries what an object was created with. It never changes
// after creation.
type ObjectSpec struct {
	Channels int               // noise generators
	Panner   ir.PannerStrategy // panned and 3D sources; never Delegate
	SineBank *SineBankConfig   // fast sine bank generators
	Stream   stream.Stream     // streaming generators
	Buffer   *buffer.Buffer    // buffers
}

// SineBankSine is a single sine partial.
func SineBankSine(frequency float64) SineBankConfig {
	return SineBankConfig{Waves: []SineWave{{FrequencyMul: 1, Gain: 1}}, InitialFrequency: frequency}
}

// SineBankSquare approximates a square wave with odd harmonics at 1/k.
func SineBankSquare(frequency float64, partials int) SineBankConfig {
	return harmonics(frequency, partials, 2, func(k int) float64 { return 1 / float64(k) })
}

// SineBankTriangle approximates a triangle wave with odd harmonics at
// alternating 1/k².
func SineBankTriangle(frequency float64, partials int) SineBankConfig {
	return harmonics(frequency, partials, 2, func(k int) float64 {
		if (k/2)%2 == 1 {
			return -1 / float64(k*k)
		}
		return 1 / float64(k*k)
	})
}

// SineBankSaw approximates a saw wave with every harmonic at alternating 1/k.
func SineBankSaw(frequency float64, partials int) SineBankConfig {
	return harmonics(frequency, partials, 1, func(k int) float64 {
		if k%2 == 0 {
			return -1 / float64(k)
		}
		return 1 / float64(k)
	})
}

// harmonics builds partials k = 1, 1+step, ... normalized to unit peak.
func harmonics(frequency float64, partials, step int, gain func(k int) float64) SineBankConfig {
	if partials < 1 {
		partials = 1
	}
	waves := make([]SineWave, 0, partials)
	total := 0.0
	for i, k := 0, 1; i < partials; i, k = i+1, k+step {
		g := gain(k)
		total += math.Abs(g)
		waves = append(waves, SineWave{FrequencyMul: float64(k), Gain: g})
	}
	for i := range waves {
		waves[i].Gain /= total
	}
	return SineBankConfig{Waves: waves, InitialFrequency: frequency}
}

func (cfg SineBankConfig) validate() error {
	if len(cfg.Waves) == 0 {
		return newError(CodeInvalidValue, ir.NoHandle, "sine bank needs at least one wave")
	}
	if !finite(cfg.InitialFrequency) || cfg.InitialFrequency < 0 {
		return newError(CodeInvalidValue, ir.NoHandle, "invalid initial frequency %g", cfg.InitialFrequency)
	}
	for i, w := range cfg.Waves {
		if !finite(w.FrequencyMul) || !finite(w.Phase) || !finite(w.Gain) || w.FrequencyMul <= 0 {
			return newError(CodeInvalidValue, ir.NoHandle, "invalid sine wave %d", i)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// createChild allocates an object owned by a context. seed overrides schema
// defaults; source types also inherit the context's Default* values.
func (l *Library) createChild(ctxH ir.Handle, typ ir.ObjectType, spec *ObjectSpec, seed map[ir.Property]ir.Value) (ir.Handle, error) {
	c, err := l.context(ctxH, true)
	if err != nil {
		return ir.NoHandle, err
	}
	if seed == nil {
		seed = make(map[ir.Property]ir.Value)
	}
	for p, v := range seed {
		ps, ok := ir.Lookup(typ, p)
		if !ok {
			return ir.NoHandle, newError(CodeInvalidProperty, ir.NoHandle, "%s on %s", p, typ)
		}
		if err := ps.Validate(v); err != nil {
			return ir.NoHandle, classify(ir.NoHandle, err)
		}
	}
	for def, child := range ir.DefaultFor {
		if _, ok := ir.Lookup(typ, child); !ok {
			continue
		}
		if _, set := seed[child]; set {
			continue
		}
		if v, err := l.props.Get(ctxH, def); err == nil {
			seed[child] = v
		}
	}

	if err := l.handles.Pin(ctxH); err != nil {
		return ir.NoHandle, classify(ctxH, err)
	}
	h, err := l.handles.Create(typ, ctxH, l.defaultBehavior())
	if err != nil {
		_ = l.handles.Unpin(ctxH)
		return ir.NoHandle, classify(ir.NoHandle, err)
	}

	obj := &object{typ: typ, context: ctxH, spec: spec}
	if typ == ir.ObjectTypeAutomationBatch {
		obj.batch = automation.NewBatch(ctxH)
	}
	l.mu.Lock()
	l.objects[h] = obj
	l.mu.Unlock()

	if err := l.props.Init(h, typ, seed); err != nil {
		_, _ = l.handles.Release(h)
		return ir.NoHandle, classify(h, err)
	}
	if typ != ir.ObjectTypeAutomationBatch {
		if err := c.stage(c.attach(h, obj)); err != nil {
			_, _ = l.handles.Release(h)
			return ir.NoHandle, err
		}
	}

	l.metrics.SetLive(l.handles.Live())
	l.logger.Debug("object created", "handle", h, "type", typ, "context", ctxH)
	return h, nil
}

// resolvePanner replaces Delegate with the context's committed default.
func (l *Library) resolvePanner(ctxH ir.Handle, s ir.PannerStrategy) (ir.PannerStrategy, error) {
	if !s.Valid() {
		return 0, newError(CodeInvalidValue, ir.NoHandle, "unknown panner strategy %d", int(s))
	}
	if s != ir.PannerStrategyDelegate {
		return s, nil
	}
	v, err := l.props.Get(ctxH, ir.PropDefaultPannerStrategy)
	if err != nil {
		return 0, classify(ctxH, err)
	}
	return ir.PannerStrategy(v.(ir.Int)), nil
}

// CreateBufferGenerator creates a generator that plays its Buffer property.
func (l *Library) CreateBufferGenerator(ctx ir.Handle) (ir.Handle, error) {
	return l.createChild(ctx, ir.ObjectTypeBufferGenerator, &ObjectSpec{}, nil)
}

// CreateNoiseGenerator creates a noise generator with the given channel count.
func (l *Library) CreateNoiseGenerator(ctx ir.Handle, channels int) (ir.Handle, error) {
	if channels < 1 || channels > buffer.MaxChannels {
		return ir.NoHandle, newError(CodeInvalidValue, ir.NoHandle, "channels must be in [1, %d], got %d", buffer.MaxChannels, channels)
	}
	return l.createChild(ctx, ir.ObjectTypeNoiseGenerator, &ObjectSpec{Channels: channels}, nil)
}

// CreateFastSineBankGenerator creates a bank of sine partials.
func (l *Library) CreateFastSineBankGenerator(ctx ir.Handle, cfg SineBankConfig) (ir.Handle, error) {
	if err := cfg.validate(); err != nil {
		return ir.NoHandle, err
	}
	bank := SineBankConfig{Waves: append([]SineWave(nil), cfg.Waves...), InitialFrequency: cfg.InitialFrequency}
	seed := map[ir.Property]ir.Value{ir.PropFrequency: ir.Double(cfg.InitialFrequency)}
	return l.createChild(ctx, ir.ObjectTypeFastSineBankGenerator, &ObjectSpec{SineBank: &bank}, seed)
}

// CreateDirectSource creates a source routed straight to the output.
func (l *Library) CreateDirectSource(ctx ir.Handle) (ir.Handle, error) {
	return l.createChild(ctx, ir.ObjectTypeDirectSource, &ObjectSpec{}, nil)
}

// CreateAngularPannedSource creates a source panned by azimuth and elevation.
func (l *Library) CreateAngularPannedSource(ctx ir.Handle, panner ir.PannerStrategy, azimuth, elevation float64) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	s, err := l.resolvePanner(ctx, panner)
	if err != nil {
		return ir.NoHandle, err
	}
	seed := map[ir.Property]ir.Value{ir.PropAzimuth: ir.Double(azimuth), ir.PropElevation: ir.Double(elevation)}
	return l.createChild(ctx, ir.ObjectTypeAngularPannedSource, &ObjectSpec{Panner: s}, seed)
}

// CreateScalarPannedSource creates a source panned by a scalar in [-1, 1].
func (l *Library) CreateScalarPannedSource(ctx ir.Handle, panner ir.PannerStrategy, scalar float64) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	s, err := l.resolvePanner(ctx, panner)
	if err != nil {
		return ir.NoHandle, err
	}
	seed := map[ir.Property]ir.Value{ir.PropPanningScalar: ir.Double(scalar)}
	return l.createChild(ctx, ir.ObjectTypeScalarPannedSource, &ObjectSpec{Panner: s}, seed)
}

// CreateSource3D creates a positioned source. Distance properties start
// from the context's Default* values.
func (l *Library) CreateSource3D(ctx ir.Handle, panner ir.PannerStrategy, x, y, z float64) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	s, err := l.resolvePanner(ctx, panner)
	if err != nil {
		return ir.NoHandle, err
	}
	seed := map[ir.Property]ir.Value{ir.PropPosition: ir.Double3{x, y, z}}
	return l.createChild(ctx, ir.ObjectTypeSource3D, &ObjectSpec{Panner: s}, seed)
}

// CreateGlobalEcho creates a tapped echo effect with no taps.
func (l *Library) CreateGlobalEcho(ctx ir.Handle) (ir.Handle, error) {
	return l.createChild(ctx, ir.ObjectTypeGlobalEcho, &ObjectSpec{}, nil)
}

// CreateGlobalFDNReverb creates a feedback delay network reverb.
func (l *Library) CreateGlobalFDNReverb(ctx ir.Handle) (ir.Handle, error) {
	return l.createChild(ctx, ir.ObjectTypeGlobalFDNReverb, &ObjectSpec{}, nil)
}

// Retain increments the reference count of h.
func (l *Library) Retain(h ir.Handle) error {
	if err := l.enter(); err != nil {
		return err
	}
	_, err := l.handles.Retain(h)
	return classify(h, err)
}

// Release decrements the reference count of h. At zero the object is
// scheduled for deletion.
func (l *Library) Release(h ir.Handle) error {
	if err := l.enter(); err != nil {
		return err
	}
	_, err := l.handles.Release(h)
	return classify(h, err)
}

// ObjectType returns the type tag of h.
func (l *Library) ObjectType(h ir.Handle) (ir.ObjectType, error) {
	if err := l.enter(); err != nil {
		return 0, err
	}
	t, err := l.handles.Type(h)
	if err != nil {
		return 0, classify(h, err)
	}
	return t, nil
}

// UserData returns the blob attached to h.
func (l *Library) UserData(h ir.Handle) (any, error) {
	if err := l.enter(); err != nil {
		return nil, err
	}
	data, err := l.handles.UserData(h)
	if err != nil {
		return nil, classify(h, err)
	}
	return data, nil
}

// SetUserData attaches a blob to h. free runs exactly once, when the blob is
// replaced, the handle is reaped or the library closes.
func (l *Library) SetUserData(h ir.Handle, data any, free handle.FreeFunc) error {
	if err := l.enter(); err != nil {
		return err
	}
	return classify(h, l.handles.SetUserData(h, data, free))
}

// ConfigureDeleteBehavior sets the linger policy of h.
func (l *Library) ConfigureDeleteBehavior(h ir.Handle, b handle.DeleteBehavior) error {
	if err := l.enter(); err != nil {
		return err
	}
	if !finite(b.LingerTimeout) {
		return newError(CodeInvalidValue, h, "linger timeout must be finite")
	}
	return classify(h, l.handles.ConfigureDeleteBehavior(h, b))
}

// Play resumes a pausable object.
func (l *Library) Play(h ir.Handle) error {
	return l.setPaused(h, false)
}

// Pause stops a pausable object from advancing.
func (l *Library) Pause(h ir.Handle) error {
	return l.setPaused(h, true)
}

func (l *Library) setPaused(h ir.Handle, paused bool) error {
	obj, err := l.resolveType(h, false, ir.ObjectType.IsPausable, "pausable")
	if err != nil {
		return err
	}
	c, err := l.owningContext(h, obj)
	if err != nil {
		return err
	}
	kind := "play"
	if paused {
		kind = "pause"
	}
	return c.stage(mutation{
		kind: kind,
		apply: func(c *Context) error {
			if obj.typ == ir.ObjectTypeContext {
				c.paused = paused
				return nil
			}
			obj.paused = paused
			return nil
		},
	})
}

// EffectReset clears the internal state of an effect at the next block.
func (l *Library) EffectReset(h ir.Handle) error {
	obj, err := l.resolveType(h, false, ir.ObjectType.IsEffect, "an effect")
	if err != nil {
		return err
	}
	c, err := l.owningContext(h, obj)
	if err != nil {
		return err
	}
	return c.stage(mutation{
		kind: "effect_reset",
		apply: func(c *Context) error {
			c.lib.renderer.ResetEffect(h)
			return nil
		},
	})
}

// SetEchoTaps replaces the taps of a global echo.
func (l *Library) SetEchoTaps(h ir.Handle, taps []EchoTap) error {
	obj, err := l.resolveType(h, true, isType(ir.ObjectTypeGlobalEcho), "a global echo")
	if err != nil {
		return err
	}
	for i, t := range taps {
		if !finite(t.Delay) || t.Delay < 0 || t.Delay > MaxEchoDelay {
			return newError(CodeInvalidValue, h, "tap %d: delay must be in [0, %g], got %g", i, MaxEchoDelay, t.Delay)
		}
		if !finite(t.GainL) || !finite(t.GainR) {
			return newError(CodeInvalidValue, h, "tap %d: gains must be finite", i)
		}
	}
	c, err := l.owningContext(h, obj)
	if err != nil {
		return err
	}
	taps = append([]EchoTap(nil), taps...)
	return c.stage(mutation{
		kind: "echo_taps",
		apply: func(c *Context) error {
			obj.echoTaps = taps
			return nil
		},
	})
}

// SourceAddGenerator connects a generator to a source. The source pins the
// generator until it is removed or the source is destroyed. Adding a
// generator twice is a no-op.
func (l *Library) SourceAddGenerator(src, gen ir.Handle) error {
	s, _, c, err := l.sourceAndGenerator(src, gen, true)
	if err != nil {
		return err
	}
	if err := l.handles.Pin(gen); err != nil {
		return classify(gen, err)
	}
	unpin := func() { _ = l.handles.Unpin(gen) }
	return c.stage(mutation{
		kind: "add_generator",
		apply: func(c *Context) error {
			if _, ok := c.members[src]; !ok {
				unpin()
				return newError(CodeInvalidHandle, src, "source was destroyed")
			}
			if _, ok := s.generators[gen]; ok {
				unpin()
				return nil
			}
			if s.generators == nil {
				s.generators = make(map[ir.Handle]struct{})
			}
			s.generators[gen] = struct{}{}
			return nil
		},
		discard: unpin,
	})
}

// SourceRemoveGenerator disconnects a generator from a source. Removing a
// generator that is not connected is a no-op.
func (l *Library) SourceRemoveGenerator(src, gen ir.Handle) error {
	s, _, c, err := l.sourceAndGenerator(src, gen, false)
	if err != nil {
		return err
	}
	return c.stage(mutation{
		kind: "remove_generator",
		apply: func(c *Context) error {
			if _, ok := s.generators[gen]; !ok {
				return nil
			}
			delete(s.generators, gen)
			return classify(gen, c.lib.handles.Unpin(gen))
		},
	})
}

// sourceAndGenerator resolves both ends of a pin. A released generator that a
// source still pins resolves when genAlive is false, so it can be detached.
func (l *Library) sourceAndGenerator(src, gen ir.Handle, genAlive bool) (*object, *object, *Context, error) {
	s, err := l.resolveType(src, false, ir.ObjectType.IsSource, "a source")
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := l.resolveType(gen, genAlive, ir.ObjectType.IsGenerator, "a generator")
	if err != nil {
		return nil, nil, nil, err
	}
	if s.context != g.context {
		return nil, nil, nil, newError(CodeInvalidValue, gen, "generator belongs to another context")
	}
	c, err := l.owningContext(src, s)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, g, c, nil
}
