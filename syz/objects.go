package syz

import "github.com/roach88/synthplane/internal/engine"

// Contexts, objects and their lifecycle.

// CreateContext creates a context that renders in real time on its own goroutine.
func (c *Caller) CreateContext() (Handle, Status) {
	return call(c, (*engine.Library).CreateContext)
}

// CreateContextHeadless creates a context whose blocks are pulled with GetBlock.
func (c *Caller) CreateContextHeadless() (Handle, Status) {
	return call(c, (*engine.Library).CreateContextHeadless)
}

// GetBlock renders one block of a headless context.
func (c *Caller) GetBlock(ctx Handle) ([]float32, Status) {
	return call(c, func(l *engine.Library) ([]float32, error) {
		return l.GetBlock(ctx)
	})
}

func (c *Caller) CreateBufferGenerator(ctx Handle) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateBufferGenerator(ctx)
	})
}

func (c *Caller) CreateNoiseGenerator(ctx Handle, channels int) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateNoiseGenerator(ctx, channels)
	})
}

func (c *Caller) CreateFastSineBankGenerator(ctx Handle, cfg SineBankConfig) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateFastSineBankGenerator(ctx, cfg)
	})
}

func (c *Caller) CreateDirectSource(ctx Handle) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateDirectSource(ctx)
	})
}

func (c *Caller) CreateAngularPannedSource(ctx Handle, panner PannerStrategy, azimuth, elevation float64) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateAngularPannedSource(ctx, panner, azimuth, elevation)
	})
}

func (c *Caller) CreateScalarPannedSource(ctx Handle, panner PannerStrategy, scalar float64) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateScalarPannedSource(ctx, panner, scalar)
	})
}

func (c *Caller) CreateSource3D(ctx Handle, panner PannerStrategy, x, y, z float64) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateSource3D(ctx, panner, x, y, z)
	})
}

func (c *Caller) CreateGlobalEcho(ctx Handle) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateGlobalEcho(ctx)
	})
}

func (c *Caller) CreateGlobalFDNReverb(ctx Handle) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateGlobalFDNReverb(ctx)
	})
}

// Retain adds a reference to h.
func (c *Caller) Retain(h Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.Retain(h)
	})
}

// Release drops a reference to h. The object is destroyed, or lingers, when the last one goes.
func (c *Caller) Release(h Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.Release(h)
	})
}

func (c *Caller) GetObjectType(h Handle) (ObjectType, Status) {
	return call(c, func(l *engine.Library) (ObjectType, error) {
		return l.ObjectType(h)
	})
}

func (c *Caller) UserData(h Handle) (any, Status) {
	return call(c, func(l *engine.Library) (any, error) {
		return l.UserData(h)
	})
}

// SetUserData attaches data to h. free runs once, when h is destroyed or the data is replaced.
func (c *Caller) SetUserData(h Handle, data any, free FreeFunc) Status {
	return do(c, func(l *engine.Library) error {
		return l.SetUserData(h, data, free)
	})
}

func (c *Caller) ConfigureDeleteBehavior(h Handle, b DeleteBehavior) Status {
	return do(c, func(l *engine.Library) error {
		return l.ConfigureDeleteBehavior(h, b)
	})
}

func (c *Caller) Play(h Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.Play(h)
	})
}

func (c *Caller) Pause(h Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.Pause(h)
	})
}

func (c *Caller) EffectReset(h Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.EffectReset(h)
	})
}

func (c *Caller) SetEchoTaps(h Handle, taps []EchoTap) Status {
	return do(c, func(l *engine.Library) error {
		return l.SetEchoTaps(h, taps)
	})
}

func (c *Caller) SourceAddGenerator(src, gen Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.SourceAddGenerator(src, gen)
	})
}

func (c *Caller) SourceRemoveGenerator(src, gen Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.SourceRemoveGenerator(src, gen)
	})
}

// Package-level forms record errors on the process-wide caller.

func CreateContext() (Handle, Status) {
	return process.CreateContext()
}

func CreateContextHeadless() (Handle, Status) {
	return process.CreateContextHeadless()
}

func GetBlock(ctx Handle) ([]float32, Status) {
	return process.GetBlock(ctx)
}

func CreateBufferGenerator(ctx Handle) (Handle, Status) {
	return process.CreateBufferGenerator(ctx)
}

func CreateNoiseGenerator(ctx Handle, channels int) (Handle, Status) {
	return process.CreateNoiseGenerator(ctx, channels)
}

func CreateFastSineBankGenerator(ctx Handle, cfg SineBankConfig) (Handle, Status) {
	return process.CreateFastSineBankGenerator(ctx, cfg)
}

func CreateDirectSource(ctx Handle) (Handle, Status) {
	return process.CreateDirectSource(ctx)
}

func CreateAngularPannedSource(ctx Handle, panner PannerStrategy, azimuth, elevation float64) (Handle, Status) {
	return process.CreateAngularPannedSource(ctx, panner, azimuth, elevation)
}

func CreateScalarPannedSource(ctx Handle, panner PannerStrategy, scalar float64) (Handle, Status) {
	return process.CreateScalarPannedSource(ctx, panner, scalar)
}

func CreateSource3D(ctx Handle, panner PannerStrategy, x, y, z float64) (Handle, Status) {
	return process.CreateSource3D(ctx, panner, x, y, z)
}

func CreateGlobalEcho(ctx Handle) (Handle, Status) {
	return process.CreateGlobalEcho(ctx)
}

func CreateGlobalFDNReverb(ctx Handle) (Handle, Status) {
	return process.CreateGlobalFDNReverb(ctx)
}

func Retain(h Handle) Status {
	return process.Retain(h)
}

func Release(h Handle) Status {
	return process.Release(h)
}

func GetObjectType(h Handle) (ObjectType, Status) {
	return process.GetObjectType(h)
}

func UserData(h Handle) (any, Status) {
	return process.UserData(h)
}

func SetUserData(h Handle, data any, free FreeFunc) Status {
	return process.SetUserData(h, data, free)
}

func ConfigureDeleteBehavior(h Handle, b DeleteBehavior) Status {
	return process.ConfigureDeleteBehavior(h, b)
}

func Play(h Handle) Status {
	return process.Play(h)
}

func Pause(h Handle) Status {
	return process.Pause(h)
}

func EffectReset(h Handle) Status {
	return process.EffectReset(h)
}

func SetEchoTaps(h Handle, taps []EchoTap) Status {
	return process.SetEchoTaps(h, taps)
}

func SourceAddGenerator(src, gen Handle) Status {
	return process.SourceAddGenerator(src, gen)
}

func SourceRemoveGenerator(src, gen Handle) Status {
	return process.SourceRemoveGenerator(src, gen)
}
